package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/blog"
	"github.com/dlrodev92/my-portfolio-api/internal/config"
	"github.com/dlrodev92/my-portfolio-api/internal/db"
	"github.com/dlrodev92/my-portfolio-api/internal/projects"
	"github.com/dlrodev92/my-portfolio-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	uploader := storage.NewNoop()

	blogService := blog.NewService(blog.NewRepository(pool), uploader)
	if err := seedBlogPost(ctx, blogService); err != nil {
		log.Fatalf("seed blog post: %v", err)
	}

	projectService := projects.NewService(projects.NewRepository(pool), uploader)
	if err := seedProject(ctx, projectService); err != nil {
		log.Fatalf("seed project: %v", err)
	}

	log.Println("seed completed")
}

func seedBlogPost(ctx context.Context, svc *blog.Service) error {
	part := 1
	_, err := svc.Create(ctx, blog.CreateRequest{
		Title:           "Building This Portfolio Backend",
		Subtitle:        "From idea to deployed API",
		Excerpt:         "A walkthrough of the stack behind this site.",
		MetaDescription: "How the portfolio API is structured: Postgres, S3 uploads and a single admin token.",
		ReadTime:        "7",
		PublishedAt:     time.Now().UTC().Format(time.RFC3339),
		Category:        &blog.CategoryInput{Name: "Engineering"},
		Series:          &blog.SeriesInput{Name: "Portfolio Build Log", Description: "Notes from building this site.", Part: &part},
		Tags:            []blog.TagInput{{Name: "Go"}, {Name: "PostgreSQL"}},
		Blocks: []blog.Block{
			{Kind: blog.BlockHeading, Order: 1, Content: "Why a custom backend", Attrs: blog.HeadingAttrs{Level: 2}},
			{Kind: blog.BlockParagraph, Order: 2, Content: "Most portfolio sites are static. This one keeps posts and case studies in a real database so publishing is an API call away.", Attrs: blog.ParagraphAttrs{Style: "normal"}},
			{Kind: blog.BlockCallout, Order: 3, Content: "Everything write-shaped sits behind a single admin token.", Attrs: blog.CalloutAttrs{Variant: "INFO", Title: "Auth"}},
			{Kind: blog.BlockCode, Order: 4, Content: "curl -X POST /login -d '{\"email\":\"...\",\"password\":\"...\"}'", Attrs: blog.CodeAttrs{Language: "bash", Title: "Getting a token"}},
			{Kind: blog.BlockList, Order: 5, Content: "", Attrs: blog.ListAttrs{Style: "BULLET", Items: []string{"chi router", "pgx storage", "S3 uploads", "Brevo contact mail"}}},
		},
	})
	if errors.Is(err, blog.ErrSlugExists) {
		log.Println("seed blog post: already present, skipping")
		return nil
	}
	return err
}

func seedProject(ctx context.Context, svc *projects.Service) error {
	_, err := svc.Create(ctx, projects.CreateRequest{
		Title:       "Portfolio API",
		Subtitle:    "The backend serving this site",
		Status:      "live",
		GitHub:      "https://github.com/dlrodev92/my-portfolio-api",
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
		Overview: &projects.Overview{
			Problem:  "Static site generators make publishing case studies a redeploy.",
			Solution: "A small REST API with relational storage and object-storage uploads.",
			Role:     "Design, implementation and operations.",
			Impact:   "New content ships without touching the frontend build.",
		},
		Metrics: &projects.Metrics{
			LaunchDate: "2026",
			Duration:   "3 weeks",
			TeamSize:   "1",
		},
		TechnicalDetails: &projects.TechnicalDetails{
			Database:   "PostgreSQL via pgx",
			API:        "REST over chi",
			Components: "blog, projects, contact, auth",
		},
		Lessons:     []string{"Composite creates want one transaction, not many."},
		NextSteps:   []string{"Image resizing on upload."},
		FutureTools: []string{"MinIO for local development"},
		PerformanceMetrics: []projects.PerformanceMetric{
			{Label: "p95 latency", Value: "under 50ms"},
		},
		Technologies: []projects.Technology{
			{Name: "Go", Reason: "Small static binary, easy deploys."},
			{Name: "PostgreSQL", Reason: "Relational fit for posts and case studies."},
		},
		Tags: []projects.TagInput{{Name: "Backend"}, {Name: "Go"}},
	})
	if errors.Is(err, projects.ErrSlugExists) {
		log.Println("seed project: already present, skipping")
		return nil
	}
	return err
}
