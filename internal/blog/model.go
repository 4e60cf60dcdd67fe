package blog

import (
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
)

type Author struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Series struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	TotalParts  int    `json:"totalParts"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Post struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Subtitle         string     `json:"subtitle,omitempty"`
	Slug             string     `json:"slug"`
	Excerpt          string     `json:"excerpt,omitempty"`
	MetaDescription  string     `json:"metaDescription,omitempty"`
	HeroImage        string     `json:"heroImage,omitempty"`
	HeroImageAlt     string     `json:"heroImageAlt,omitempty"`
	HeroImageCaption string     `json:"heroImageCaption,omitempty"`
	SocialImage      string     `json:"socialImage,omitempty"`
	ReadTime         int        `json:"readTime"`
	WordCount        int        `json:"wordCount"`
	Views            int64      `json:"views"`
	Author           Author     `json:"author"`
	PublishedAt      *time.Time `json:"publishedAt"`
	SeriesPart       *int       `json:"seriesPart,omitempty"`
	Category         *Category  `json:"category,omitempty"`
	Series           *Series    `json:"series,omitempty"`
	Blocks           []Block    `json:"contentBlocks"`
	Tags             []Tag      `json:"tags"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Card is the reduced projection for list/grid display.
type Card struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Slug        string     `json:"slug"`
	HeroImage   string     `json:"heroImage,omitempty"`
	ReadTime    int        `json:"readTime"`
	Views       int64      `json:"views"`
	PublishedAt *time.Time `json:"publishedAt"`
	Category    *Category  `json:"category,omitempty"`
	Tags        []Tag      `json:"tags"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type SeriesInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Part        *int   `json:"part,omitempty"`
}

type TagInput struct {
	Name string `json:"name"`
}

// CreateRequest carries everything needed to build a post atomically:
// scalar fields from the multipart form, structured fields decoded from
// JSON form values, and the buffered uploads.
type CreateRequest struct {
	Title            string `validate:"required"`
	Subtitle         string
	Excerpt          string
	MetaDescription  string
	HeroImageAlt     string
	HeroImageCaption string
	ReadTime         string
	PublishedAt      string `validate:"omitempty,rfc3339"`
	Author           *Author
	Blocks           []Block
	Category         *CategoryInput
	Series           *SeriesInput
	Tags             []TagInput

	HeroImage     *storage.File
	SocialImage   *storage.File
	ContentImages []storage.File
}

// UpdateRequest is a shallow merge: only non-nil fields are written.
// Files and nested relations do not go through the composite builder here.
type UpdateRequest struct {
	Title            *string `json:"title"`
	Subtitle         *string `json:"subtitle"`
	Excerpt          *string `json:"excerpt"`
	MetaDescription  *string `json:"metaDescription"`
	HeroImage        *string `json:"heroImage"`
	HeroImageAlt     *string `json:"heroImageAlt"`
	HeroImageCaption *string `json:"heroImageCaption"`
	SocialImage      *string `json:"socialImage"`
	ReadTime         *int    `json:"readTime"`
	PublishedAt      *string `json:"publishedAt" validate:"omitempty,rfc3339"`
}

// ListFilter predicates are omitted entirely when empty; Published nil
// means "no publication predicate".
type ListFilter struct {
	Category  string
	Tag       string
	Series    string
	Published *bool
}

type CardFilter struct {
	Category string
	Tag      string
}
