// Package youtube resolves external video links into video ids and
// thumbnail URLs. Pure string work; no network calls.
package youtube

import (
	"fmt"
	"regexp"
)

// videoIDPattern matches the standard YouTube URL shapes: watch?v=,
// youtu.be/, embed/, v/, u/<w>/ and a trailing &v= parameter. The
// capture is the 11-character video id.
var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID returns the 11-character video id embedded in url, or
// false when the url does not match any known shape.
func ExtractVideoID(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ThumbnailURL derives the max-resolution thumbnail for a video id.
func ThumbnailURL(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
}
