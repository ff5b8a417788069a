// Package policy holds the upload acceptance rules and the storage path
// layout. Pure functions only; no I/O happens here so every rule is
// checked before a single byte leaves the process.
package policy

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"resourcehub/internal/model"
)

var (
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// uploadRule pairs the accepted extensions with the byte ceiling for one
// resource type.
type uploadRule struct {
	extensions []string
	maxBytes   int64
}

const mb = int64(1024 * 1024)

// uploadRules is the acceptance table. Types without an entry (article,
// whitepaper, template, toolkit, other) carry only an external link and
// have no upload path, so any upload against them is rejected.
var uploadRules = map[model.ResourceType]uploadRule{
	model.TypePDF:   {extensions: []string{".pdf"}, maxBytes: 10 * mb},
	model.TypeDocx:  {extensions: []string{".docx", ".doc"}, maxBytes: 10 * mb},
	model.TypeImage: {extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}, maxBytes: 5 * mb},
	model.TypeVideo: {extensions: []string{".mp4", ".mov", ".avi", ".webm", ".mkv"}, maxBytes: 100 * mb},
	model.TypeAudio: {extensions: []string{".mp3", ".wav", ".ogg", ".m4a", ".aac"}, maxBytes: 20 * mb},
}

// ValidateUpload checks size and extension for an upload of the given
// resource type. Size equal to the ceiling is accepted; the extension
// match is case-insensitive on the filename suffix.
func ValidateUpload(filename string, size int64, rtype model.ResourceType) error {
	rule, ok := uploadRules[rtype]
	if !ok {
		return fmt.Errorf("%w: resource type %q does not accept uploads", ErrUnsupportedExtension, rtype)
	}
	if size > rule.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit for type %q", ErrFileTooLarge, size, rule.maxBytes, rtype)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range rule.extensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not accepted for type %q", ErrUnsupportedExtension, ext, rtype)
}

// bucket maps a resource type to its storage prefix.
func bucket(rtype model.ResourceType) string {
	switch rtype {
	case model.TypePDF, model.TypeDocx:
		return "documents"
	case model.TypeImage:
		return "images"
	case model.TypeVideo:
		return "videos"
	case model.TypeAudio:
		return "audio"
	default:
		return "other"
	}
}

// StoragePath derives the object key for an upload:
// resources/<bucket>/<epoch-millis>_<originalFilename>.
//
// Two identically named files uploaded within the same millisecond
// collide. Accepted limitation: the key keeps the original filename on
// purpose, and the admin upload rate makes the window irrelevant.
func StoragePath(rtype model.ResourceType, filename string) string {
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filename)
	return filepath.ToSlash(filepath.Join("resources", bucket(rtype), name))
}
