package blog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
	"github.com/dlrodev92/my-portfolio-api/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("blog post not found")
	ErrSlugExists         = errors.New("slug already exists")
	ErrUpload             = errors.New("upload failed")
	ErrImageCountMismatch = errors.New("content image count does not match IMAGE blocks")
)

const uploadNamespace = "blog"

var defaultAuthor = Author{Name: "David Rodriguez", Bio: "Full-stack developer"}

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

// Create builds a post and every dependent row atomically. Uploads run
// before the transaction opens; a failed upload aborts the whole create.
// Blobs already uploaded when a later step fails are not retracted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Post, error) {
	// Reject a content-image/IMAGE-block count mismatch up front, before
	// anything is pushed to storage.
	if len(req.ContentImages) > 0 && len(req.ContentImages) != countImageBlocks(req.Blocks) {
		return nil, ErrImageCountMismatch
	}

	heroURL, err := s.uploadOne(ctx, req.HeroImage, "hero image")
	if err != nil {
		return nil, err
	}
	socialURL, err := s.uploadOne(ctx, req.SocialImage, "social image")
	if err != nil {
		return nil, err
	}

	blocks := req.Blocks
	if len(req.ContentImages) > 0 {
		urls := make([]string, 0, len(req.ContentImages))
		for i := range req.ContentImages {
			url, err := s.uploader.Upload(ctx, uploadNamespace, req.ContentImages[i])
			if err != nil {
				return nil, fmt.Errorf("%w: content image %d: %v", ErrUpload, i+1, err)
			}
			urls = append(urls, url)
		}
		blocks = assignImageURLs(blocks, urls)
	}

	author := defaultAuthor
	if req.Author != nil {
		author = *req.Author
	}

	var publishedAt *time.Time
	if req.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid publishedAt: %w", err)
		}
		publishedAt = &t
	}

	contents := make([]string, len(blocks))
	for i, b := range blocks {
		contents[i] = b.Content
	}

	post := &Post{
		Title:            req.Title,
		Subtitle:         req.Subtitle,
		Slug:             utils.Slugify(req.Title),
		Excerpt:          req.Excerpt,
		MetaDescription:  req.MetaDescription,
		HeroImage:        heroURL,
		HeroImageAlt:     req.HeroImageAlt,
		HeroImageCaption: req.HeroImageCaption,
		SocialImage:      socialURL,
		ReadTime:         parseReadTime(req.ReadTime),
		WordCount:        utils.WordCount(contents),
		Author:           author,
		PublishedAt:      publishedAt,
	}

	err = s.repo.InTx(ctx, func(store Store) error {
		if req.Category != nil && strings.TrimSpace(req.Category.Name) != "" {
			name := strings.TrimSpace(req.Category.Name)
			category, err := store.UpsertCategory(ctx, name, utils.Slugify(name))
			if err != nil {
				return err
			}
			post.Category = &category
		}

		if err := store.InsertPost(ctx, post); err != nil {
			return err
		}

		for _, block := range blocks {
			if err := store.InsertBlock(ctx, post.ID, block); err != nil {
				return err
			}
		}

		if req.Series != nil && strings.TrimSpace(req.Series.Name) != "" {
			name := strings.TrimSpace(req.Series.Name)
			series, err := store.UpsertSeries(ctx, name, utils.Slugify(name), req.Series.Description)
			if err != nil {
				return err
			}
			if err := store.AttachSeries(ctx, post.ID, series.ID, req.Series.Part); err != nil {
				return err
			}
			// total_parts is recomputed from the live count, never
			// incrementally maintained.
			total, err := store.CountSeriesPosts(ctx, series.ID)
			if err != nil {
				return err
			}
			if err := store.SetSeriesTotalParts(ctx, series.ID, total); err != nil {
				return err
			}
			series.TotalParts = total
			post.Series = &series
			post.SeriesPart = req.Series.Part
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
			if err := store.AttachTag(ctx, post.ID, tag.ID); err != nil {
				return err
			}
			post.Tags = append(post.Tags, tag)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}

	post.Blocks = blocks
	return post, nil
}

// GetBySlug returns the full post and bumps its view counter by one.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	post, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Post, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ListCards(ctx context.Context, filter CardFilter, limit, offset int64) ([]Card, error) {
	return s.repo.ListCards(ctx, filter, limit, offset)
}

// Update is a shallow merge of the supplied fields; files never go
// through the composite builder on update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Post, error) {
	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Subtitle != nil {
		fields["subtitle"] = *req.Subtitle
	}
	if req.Excerpt != nil {
		fields["excerpt"] = *req.Excerpt
	}
	if req.MetaDescription != nil {
		fields["meta_description"] = *req.MetaDescription
	}
	if req.HeroImage != nil {
		fields["hero_image"] = *req.HeroImage
	}
	if req.HeroImageAlt != nil {
		fields["hero_image_alt"] = *req.HeroImageAlt
	}
	if req.HeroImageCaption != nil {
		fields["hero_image_caption"] = *req.HeroImageCaption
	}
	if req.SocialImage != nil {
		fields["social_image"] = *req.SocialImage
	}
	if req.ReadTime != nil {
		fields["read_time"] = *req.ReadTime
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

func (s *Service) uploadOne(ctx context.Context, file *storage.File, label string) (string, error) {
	if file == nil {
		return "", nil
	}
	url, err := s.uploader.Upload(ctx, uploadNamespace, *file)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUpload, label, err)
	}
	return url, nil
}

func countImageBlocks(blocks []Block) int {
	count := 0
	for _, b := range blocks {
		if b.Kind == BlockImage {
			count++
		}
	}
	return count
}

// assignImageURLs matches uploaded URLs to IMAGE blocks positionally.
// Counts are validated before upload, so every URL finds a block.
func assignImageURLs(blocks []Block, urls []string) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	i := 0
	for idx := range out {
		if out[idx].Kind != BlockImage || i >= len(urls) {
			continue
		}
		attrs, _ := out[idx].Attrs.(ImageAttrs)
		attrs.URL = urls[i]
		out[idx].Attrs = attrs
		i++
	}
	return out
}

func parseReadTime(raw string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
		return n
	}
	return 5
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
