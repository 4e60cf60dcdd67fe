package projects

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeUploader struct {
	calls []string
	fail  string // file name that triggers a failure
	n     int
}

func (f *fakeUploader) Upload(_ context.Context, namespace string, file storage.File) (string, error) {
	f.calls = append(f.calls, file.Name)
	if f.fail != "" && f.fail == file.Name {
		return "", errors.New("storage unavailable")
	}
	f.n++
	return fmt.Sprintf("https://cdn.test/%s/%d.png", namespace, f.n), nil
}

// fakeRepo keeps committed state only; InTx stages writes and discards
// them when the callback fails.
type fakeRepo struct {
	nextID       int64
	projects     map[int64]*Project
	overviews    map[int64]Overview
	entries      map[string][]string // table name -> values across projects
	screenshots  map[int64][]Screenshot
	technologies map[int64][]Technology
	tags         map[string]Tag
	tagLinks     map[int64][]int64

	failAddScreenshot bool
	insertErr         error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:     map[int64]*Project{},
		overviews:    map[int64]Overview{},
		entries:      map[string][]string{},
		screenshots:  map[int64][]Screenshot{},
		technologies: map[int64][]Technology{},
		tags:         map[string]Tag{},
		tagLinks:     map[int64][]int64{},
	}
}

func (r *fakeRepo) snapshot() *fakeRepo {
	c := newFakeRepo()
	c.nextID = r.nextID
	c.failAddScreenshot = r.failAddScreenshot
	c.insertErr = r.insertErr
	for k, v := range r.projects {
		p := *v
		c.projects[k] = &p
	}
	for k, v := range r.overviews {
		c.overviews[k] = v
	}
	for k, v := range r.entries {
		c.entries[k] = append([]string(nil), v...)
	}
	for k, v := range r.screenshots {
		c.screenshots[k] = append([]Screenshot(nil), v...)
	}
	for k, v := range r.technologies {
		c.technologies[k] = append([]Technology(nil), v...)
	}
	for k, v := range r.tags {
		c.tags[k] = v
	}
	for k, v := range r.tagLinks {
		c.tagLinks[k] = append([]int64(nil), v...)
	}
	return c
}

func (r *fakeRepo) InTx(_ context.Context, fn func(Store) error) error {
	staged := r.snapshot()
	if err := fn(&stagedStore{staged: staged}); err != nil {
		return err
	}
	*r = *staged
	return nil
}

type stagedStore struct {
	staged *fakeRepo
}

func (s *stagedStore) InsertProject(_ context.Context, project *Project) error {
	if s.staged.insertErr != nil {
		return s.staged.insertErr
	}
	s.staged.nextID++
	project.ID = s.staged.nextID
	p := *project
	s.staged.projects[project.ID] = &p
	return nil
}

func (s *stagedStore) SetOverview(_ context.Context, projectID int64, o Overview) error {
	s.staged.overviews[projectID] = o
	return nil
}

func (s *stagedStore) SetMetrics(_ context.Context, _ int64, _ Metrics) error { return nil }

func (s *stagedStore) SetTechnicalDetails(_ context.Context, _ int64, _ TechnicalDetails) error {
	return nil
}

func (s *stagedStore) AddEntries(_ context.Context, _ int64, list EntryList, values []string) error {
	s.staged.entries[list.table] = append(s.staged.entries[list.table], values...)
	return nil
}

func (s *stagedStore) AddPerformanceMetric(_ context.Context, _ int64, _ PerformanceMetric) error {
	return nil
}

func (s *stagedStore) AddScreenshot(_ context.Context, projectID int64, sc Screenshot) error {
	if s.staged.failAddScreenshot {
		return errors.New("insert screenshot failed")
	}
	s.staged.screenshots[projectID] = append(s.staged.screenshots[projectID], sc)
	return nil
}

func (s *stagedStore) AddTechnology(_ context.Context, projectID int64, t Technology) error {
	s.staged.technologies[projectID] = append(s.staged.technologies[projectID], t)
	return nil
}

func (s *stagedStore) UpsertTag(_ context.Context, name, slug string) (Tag, error) {
	if t, ok := s.staged.tags[name]; ok {
		return t, nil
	}
	s.staged.nextID++
	t := Tag{ID: s.staged.nextID, Name: name, Slug: slug}
	s.staged.tags[name] = t
	return t, nil
}

func (s *stagedStore) AttachTag(_ context.Context, projectID, tagID int64) error {
	s.staged.tagLinks[projectID] = append(s.staged.tagLinks[projectID], tagID)
	return nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (*Project, error) {
	for _, p := range r.projects {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*Project, error) {
	if p, ok := r.projects[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter, _, _ int64) ([]Project, error) {
	out := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeRepo) ListCards(_ context.Context, _ ListFilter, _, _ int64) ([]Card, error) {
	return nil, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, fields map[string]interface{}) error {
	p, ok := r.projects[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if status, ok := fields["status"].(string); ok {
		p.Status = status
	}
	if title, ok := fields["title"].(string); ok {
		p.Title = title
	}
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.projects[id]; !ok {
		return false, nil
	}
	delete(r.projects, id)
	return true, nil
}

func pngFile(name string) storage.File {
	return storage.File{Name: name, ContentType: "image/png", Data: []byte{1}}
}

func TestCreateUppercasesStatusAndDerivesSlug(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	project, err := svc.Create(context.Background(), CreateRequest{
		Title:  "My Side Project!",
		Status: "live",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if project.Status != "LIVE" {
		t.Fatalf("expected status LIVE, got %q", project.Status)
	}
	if project.Slug != "my-side-project" {
		t.Fatalf("expected slug my-side-project, got %q", project.Slug)
	}
}

func TestCreateDefaultsStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	project, err := svc.Create(context.Background(), CreateRequest{Title: "No Status"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if project.Status != "IN_PROGRESS" {
		t.Fatalf("expected default status IN_PROGRESS, got %q", project.Status)
	}
}

func TestCreateScreenshotsOrderedAndPaired(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	project, err := svc.Create(context.Background(), CreateRequest{
		Title:          "Gallery",
		Screenshots:    []storage.File{pngFile("a.png"), pngFile("b.png"), pngFile("c.png")},
		ScreenshotMeta: []ScreenshotInput{{Description: "landing"}, {Description: "dashboard"}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	shots := repo.screenshots[project.ID]
	if len(shots) != 3 {
		t.Fatalf("expected 3 screenshots, got %d", len(shots))
	}
	for i, sc := range shots {
		if sc.Order != i {
			t.Fatalf("screenshot %d has order %d", i, sc.Order)
		}
	}
	if shots[0].Description != "landing" || shots[1].Description != "dashboard" {
		t.Fatalf("descriptions not paired positionally: %+v", shots)
	}
	if shots[2].Description != "" {
		t.Fatalf("unmatched screenshot must have empty description, got %q", shots[2].Description)
	}
}

func TestCreateUploadFailureAbortsEverything(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{fail: "b.png"}
	svc := NewService(repo, uploader)

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:       "Broken Upload",
		Screenshots: []storage.File{pngFile("a.png"), pngFile("b.png")},
		Tags:        []TagInput{{Name: "go"}},
	})
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if len(repo.projects) != 0 || len(repo.tags) != 0 {
		t.Fatal("no row may be persisted when an upload fails")
	}
}

func TestCreateTransactionFailureDiscardsAllWrites(t *testing.T) {
	repo := newFakeRepo()
	repo.failAddScreenshot = true
	svc := NewService(repo, &fakeUploader{})

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:       "Doomed",
		Overview:    &Overview{Problem: "p"},
		Lessons:     []string{"lesson one"},
		Screenshots: []storage.File{pngFile("a.png")},
	})
	if err == nil {
		t.Fatal("expected error from failing screenshot insert")
	}
	if len(repo.projects) != 0 || len(repo.overviews) != 0 || len(repo.entries) != 0 {
		t.Fatal("transaction failure must leave no visible state")
	}
}

func TestCreateTagUpsertIsReferentiallyStable(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	for _, title := range []string{"First Project", "Second Project"} {
		if _, err := svc.Create(context.Background(), CreateRequest{
			Title: title,
			Tags:  []TagInput{{Name: "go"}},
		}); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	if len(repo.tags) != 1 {
		t.Fatalf("expected exactly one tag row, got %d", len(repo.tags))
	}
	links := 0
	for _, tagIDs := range repo.tagLinks {
		links += len(tagIDs)
	}
	if links != 2 {
		t.Fatalf("expected two tag join rows, got %d", links)
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = &pgconn.PgError{Code: "23505"}
	svc := NewService(repo, &fakeUploader{})

	_, err := svc.Create(context.Background(), CreateRequest{Title: "Twice"})
	if !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestListUppercasesStatusFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	if _, err := svc.Create(context.Background(), CreateRequest{Title: "Live One", Status: "LIVE"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateRequest{Title: "Building", Status: "IN_PROGRESS"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	out, err := svc.List(context.Background(), ListFilter{Status: "live"}, 10, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(out) != 1 || out[0].Status != "LIVE" {
		t.Fatalf("status filter must be case-insensitive, got %+v", out)
	}
}

func TestUpdateStatusUppercased(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	project, err := svc.Create(context.Background(), CreateRequest{Title: "To Ship"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	status := "completed"
	updated, err := svc.Update(context.Background(), project.ID, UpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Status != "COMPLETED" {
		t.Fatalf("expected status COMPLETED, got %q", updated.Status)
	}
}

func TestDeleteUnknown(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
