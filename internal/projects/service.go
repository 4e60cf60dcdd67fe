package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
	"github.com/dlrodev92/my-portfolio-api/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("project not found")
	ErrSlugExists = errors.New("slug already exists")
	ErrUpload     = errors.New("upload failed")
)

const (
	uploadNamespace = "project"
	defaultStatus   = "IN_PROGRESS"
)

type Service struct {
	repo     Repository
	uploader storage.Uploader
}

func NewService(repo Repository, uploader storage.Uploader) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
	}
}

// Create builds a project and every sub-record atomically. Uploads run
// before the transaction opens; a failed upload aborts the whole create.
// Blobs already uploaded when a later step fails are not retracted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	var heroURL string
	if req.HeroImage != nil {
		url, err := s.uploader.Upload(ctx, uploadNamespace, *req.HeroImage)
		if err != nil {
			return nil, fmt.Errorf("%w: hero image: %v", ErrUpload, err)
		}
		heroURL = url
	}

	screenshotURLs := make([]string, 0, len(req.Screenshots))
	for i := range req.Screenshots {
		url, err := s.uploader.Upload(ctx, uploadNamespace, req.Screenshots[i])
		if err != nil {
			return nil, fmt.Errorf("%w: screenshot %d: %v", ErrUpload, i+1, err)
		}
		screenshotURLs = append(screenshotURLs, url)
	}

	var publishedAt *time.Time
	if req.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid publishedAt: %w", err)
		}
		publishedAt = &t
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = defaultStatus
	}

	project := &Project{
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		Slug:        utils.Slugify(req.Title),
		Status:      status,
		HeroImage:   heroURL,
		LiveDemo:    req.LiveDemo,
		GitHub:      req.GitHub,
		CaseStudy:   req.CaseStudy,
		PublishedAt: publishedAt,
	}

	err := s.repo.InTx(ctx, func(store Store) error {
		if err := store.InsertProject(ctx, project); err != nil {
			return err
		}

		if req.Overview != nil {
			if err := store.SetOverview(ctx, project.ID, *req.Overview); err != nil {
				return err
			}
			project.Overview = req.Overview
		}
		if req.Metrics != nil {
			if err := store.SetMetrics(ctx, project.ID, *req.Metrics); err != nil {
				return err
			}
			project.Metrics = req.Metrics
		}
		if req.TechnicalDetails != nil {
			if err := store.SetTechnicalDetails(ctx, project.ID, *req.TechnicalDetails); err != nil {
				return err
			}
			project.TechnicalDetails = req.TechnicalDetails
		}

		for _, entries := range []struct {
			list   EntryList
			values []string
		}{
			{Lessons, req.Lessons},
			{BusinessOutcomes, req.BusinessOutcomes},
			{Improvements, req.Improvements},
			{NextSteps, req.NextSteps},
			{FutureTools, req.FutureTools},
		} {
			if err := store.AddEntries(ctx, project.ID, entries.list, entries.values); err != nil {
				return err
			}
		}
		project.Lessons = req.Lessons
		project.BusinessOutcomes = req.BusinessOutcomes
		project.Improvements = req.Improvements
		project.NextSteps = req.NextSteps
		project.FutureTools = req.FutureTools

		for _, m := range req.PerformanceMetrics {
			if strings.TrimSpace(m.Label) == "" {
				continue
			}
			if err := store.AddPerformanceMetric(ctx, project.ID, m); err != nil {
				return err
			}
			project.PerformanceMetrics = append(project.PerformanceMetrics, m)
		}

		// Screenshot descriptions pair positionally with the uploaded files;
		// missing descriptions are left empty.
		for i, url := range screenshotURLs {
			sc := Screenshot{URL: url, Order: i}
			if i < len(req.ScreenshotMeta) {
				sc.Description = req.ScreenshotMeta[i].Description
			}
			if err := store.AddScreenshot(ctx, project.ID, sc); err != nil {
				return err
			}
			project.Screenshots = append(project.Screenshots, sc)
		}

		for _, tech := range req.Technologies {
			if strings.TrimSpace(tech.Name) == "" {
				continue
			}
			if err := store.AddTechnology(ctx, project.ID, tech); err != nil {
				return err
			}
			project.Technologies = append(project.Technologies, tech)
		}

		for _, tagInput := range req.Tags {
			name := strings.TrimSpace(tagInput.Name)
			if name == "" {
				continue
			}
			tag, err := store.UpsertTag(ctx, name, utils.Slugify(name))
			if err != nil {
				return err
			}
			if err := store.AttachTag(ctx, project.ID, tag.ID); err != nil {
				return err
			}
			project.Tags = append(project.Tags, tag)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}

	return project, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	project, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Project, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ListCards(ctx context.Context, filter ListFilter, limit, offset int64) ([]Card, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	return s.repo.ListCards(ctx, filter, limit, offset)
}

// Update is a shallow merge of the supplied fields; sub-records and files
// never go through the composite builder on update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Project, error) {
	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Subtitle != nil {
		fields["subtitle"] = *req.Subtitle
	}
	if req.Status != nil {
		fields["status"] = strings.ToUpper(strings.TrimSpace(*req.Status))
	}
	if req.HeroImage != nil {
		fields["hero_image"] = *req.HeroImage
	}
	if req.LiveDemo != nil {
		fields["live_demo"] = *req.LiveDemo
	}
	if req.GitHub != nil {
		fields["github"] = *req.GitHub
	}
	if req.CaseStudy != nil {
		fields["case_study"] = *req.CaseStudy
	}
	if req.PublishedAt != nil {
		if *req.PublishedAt == "" {
			fields["published_at"] = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("invalid publishedAt: %w", err)
			}
			fields["published_at"] = t
		}
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
