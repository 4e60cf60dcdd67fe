package projects

import (
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
)

type Overview struct {
	Problem  string `json:"problem,omitempty"`
	Solution string `json:"solution,omitempty"`
	Role     string `json:"role,omitempty"`
	Impact   string `json:"impact,omitempty"`
}

type Metrics struct {
	LaunchDate string `json:"launchDate,omitempty"`
	Duration   string `json:"duration,omitempty"`
	TeamSize   string `json:"teamSize,omitempty"`
}

type TechnicalDetails struct {
	Database   string `json:"database,omitempty"`
	API        string `json:"api,omitempty"`
	Components string `json:"components,omitempty"`
}

type Screenshot struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

type Technology struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

type PerformanceMetric struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Project struct {
	ID                 int64               `json:"id"`
	Title              string              `json:"title"`
	Subtitle           string              `json:"subtitle,omitempty"`
	Slug               string              `json:"slug"`
	Status             string              `json:"status"`
	HeroImage          string              `json:"heroImage,omitempty"`
	LiveDemo           string              `json:"liveDemo,omitempty"`
	GitHub             string              `json:"github,omitempty"`
	CaseStudy          string              `json:"caseStudy,omitempty"`
	PublishedAt        *time.Time          `json:"publishedAt"`
	Overview           *Overview           `json:"overview,omitempty"`
	Metrics            *Metrics            `json:"metrics,omitempty"`
	TechnicalDetails   *TechnicalDetails   `json:"technicalDetails,omitempty"`
	Lessons            []string            `json:"lessons"`
	BusinessOutcomes   []string            `json:"businessOutcomes"`
	Improvements       []string            `json:"improvements"`
	NextSteps          []string            `json:"nextSteps"`
	FutureTools        []string            `json:"futureTools"`
	PerformanceMetrics []PerformanceMetric `json:"performanceMetrics"`
	Screenshots        []Screenshot        `json:"screenshots"`
	Technologies       []Technology        `json:"technologies"`
	Tags               []Tag               `json:"tags"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Card flattens relations the way the grid view consumes them: technology
// names as a plain list, tags as name/slug pairs.
type Card struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	Status      string    `json:"status"`
	HeroImage   string    `json:"heroImage,omitempty"`
	LiveDemo    string    `json:"liveDemo,omitempty"`
	GitHub      string    `json:"github,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Tech        []string  `json:"tech"`
	Tags        []CardTag `json:"tags"`
}

type CardTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ScreenshotInput struct {
	Description string `json:"description"`
}

type TagInput struct {
	Name string `json:"name"`
}

// CreateRequest carries the multipart form contents: scalar fields,
// JSON-encoded structured fields and the buffered uploads.
type CreateRequest struct {
	Title       string `validate:"required"`
	Subtitle    string
	Status      string
	LiveDemo    string
	GitHub      string
	CaseStudy   string
	PublishedAt string `validate:"omitempty,rfc3339"`

	Overview           *Overview
	Metrics            *Metrics
	TechnicalDetails   *TechnicalDetails
	Lessons            []string
	BusinessOutcomes   []string
	Improvements       []string
	NextSteps          []string
	FutureTools        []string
	PerformanceMetrics []PerformanceMetric
	ScreenshotMeta     []ScreenshotInput
	Technologies       []Technology
	Tags               []TagInput

	HeroImage   *storage.File
	Screenshots []storage.File
}

// UpdateRequest is a shallow merge: only non-nil fields are written.
// Sub-records and files do not go through the composite builder here.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Subtitle    *string `json:"subtitle"`
	Status      *string `json:"status"`
	HeroImage   *string `json:"heroImage"`
	LiveDemo    *string `json:"liveDemo"`
	GitHub      *string `json:"github"`
	CaseStudy   *string `json:"caseStudy"`
	PublishedAt *string `json:"publishedAt" validate:"omitempty,rfc3339"`
}

// ListFilter predicates are omitted entirely when empty.
type ListFilter struct {
	Status string
	Tag    string
}
