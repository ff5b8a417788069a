package model

import "time"

// ResourceType classifies a resource and selects its upload rule and
// storage bucket.
type ResourceType string

const (
	TypePDF        ResourceType = "pdf"
	TypeDocx       ResourceType = "docx"
	TypeImage      ResourceType = "image"
	TypeVideo      ResourceType = "video"
	TypeAudio      ResourceType = "audio"
	TypeArticle    ResourceType = "article"
	TypeWhitepaper ResourceType = "whitepaper"
	TypeTemplate   ResourceType = "template"
	TypeToolkit    ResourceType = "toolkit"
	TypeOther      ResourceType = "other"
)

var resourceTypes = map[ResourceType]struct{}{
	TypePDF: {}, TypeDocx: {}, TypeImage: {}, TypeVideo: {}, TypeAudio: {},
	TypeArticle: {}, TypeWhitepaper: {}, TypeTemplate: {}, TypeToolkit: {}, TypeOther: {},
}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	_, ok := resourceTypes[t]
	return ok
}

// Category groups resources for browsing and stats.
type Category string

const (
	CategoryLeadership    Category = "leadership"
	CategoryTeamBuilding  Category = "team-building"
	CategoryCommunication Category = "communication"
	CategoryStrategy      Category = "strategy"
	CategoryManagement    Category = "management"
	CategoryProductivity  Category = "productivity"
	CategoryInnovation    Category = "innovation"
	CategoryCulture       Category = "culture"
	CategoryVideos        Category = "videos"
	CategoryArticles      Category = "articles"
	CategoryPDFs          Category = "pdfs"
	CategoryWhitepapers   Category = "whitepapers"
	CategoryOther         Category = "other"
)

var categories = map[Category]struct{}{
	CategoryLeadership: {}, CategoryTeamBuilding: {}, CategoryCommunication: {},
	CategoryStrategy: {}, CategoryManagement: {}, CategoryProductivity: {},
	CategoryInnovation: {}, CategoryCulture: {}, CategoryVideos: {},
	CategoryArticles: {}, CategoryPDFs: {}, CategoryWhitepapers: {}, CategoryOther: {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Resource represents a downloadable or linkable asset plus its metadata.
// This is a pure domain model with no database-specific dependencies or tags.
//
// FileURL, ThumbnailURL and FileSize are pointers because absence is part
// of the contract: a resource created without a file has no file_url at
// all, which is not the same as an empty string. FileSize is set only
// when the current FileURL came from an upload through this engine.
type Resource struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Type             ResourceType `json:"type"`
	Category         Category     `json:"category"`
	FileURL          *string      `json:"fileUrl,omitempty"`
	ThumbnailURL     *string      `json:"thumbnailUrl,omitempty"`
	FileSize         *int64       `json:"fileSize,omitempty"`
	IsPublic         bool         `json:"isPublic"`
	Featured         bool         `json:"featured"`
	Tags             []string     `json:"tags"`
	RelatedResources []string     `json:"relatedResources"`
	DownloadCount    int64        `json:"downloadCount"`
	CreatedBy        string       `json:"createdBy"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ResourceInput carries the caller-supplied fields for creating a resource.
// FileURL is an external link (stored verbatim when no file is uploaded).
type ResourceInput struct {
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Type             ResourceType `json:"type"`
	Category         Category     `json:"category"`
	FileURL          string       `json:"fileUrl"`
	IsPublic         bool         `json:"isPublic"`
	Featured         bool         `json:"featured"`
	Tags             []string     `json:"tags"`
	RelatedResources []string     `json:"relatedResources"`
	CreatedBy        string       `json:"createdBy"`
}

// ResourceUpdate is a partial update: one pointer per mutable attribute.
// A nil field means "leave the stored value untouched"; the repository
// builds its UPDATE statement exclusively from the non-nil fields, so an
// update never overwrites attributes the caller did not name.
type ResourceUpdate struct {
	Title            *string
	Description      *string
	Type             *ResourceType
	Category         *Category
	FileURL          *string
	ThumbnailURL     *string
	FileSize         *int64
	IsPublic         *bool
	Featured         *bool
	Tags             *[]string
	RelatedResources *[]string
}

// Empty reports whether the update names no fields at all.
func (u ResourceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Type == nil &&
		u.Category == nil && u.FileURL == nil && u.ThumbnailURL == nil &&
		u.FileSize == nil && u.IsPublic == nil && u.Featured == nil &&
		u.Tags == nil && u.RelatedResources == nil
}

// ResourceFilters narrows List results. Category, Type and IsPublic are
// pushed down to the store as equality filters; Search is applied after
// retrieval as a case-insensitive substring match over title and
// description, so it does not reduce the number of rows fetched.
type ResourceFilters struct {
	Category *Category
	Type     *ResourceType
	IsPublic *bool
	Limit    int
	Search   string
}

// ResourceStats is the aggregate view over the whole collection.
type ResourceStats struct {
	Total          int64            `json:"total"`
	TotalDownloads int64            `json:"totalDownloads"`
	ByCategory     map[string]int64 `json:"byCategory"`
}
