package blog

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
	return fmt.Sprintf("https://cdn.test/%s/%d.jpg", namespace, f.n), nil
}

// fakeRepo keeps committed state only; InTx stages writes and discards
// them when the callback fails, mirroring transactional visibility.
type fakeRepo struct {
	nextID     int64
	posts      map[int64]*Post
	blocks     map[int64][]Block
	categories map[string]Category
	series     map[string]Series
	tags       map[string]Tag
	tagLinks   map[int64][]int64
	postSeries map[int64]int64
	views      map[int64]int

	failInsertBlock bool
	insertPostErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:      map[int64]*Post{},
		blocks:     map[int64][]Block{},
		categories: map[string]Category{},
		series:     map[string]Series{},
		tags:       map[string]Tag{},
		tagLinks:   map[int64][]int64{},
		postSeries: map[int64]int64{},
		views:      map[int64]int{},
	}
}

type stagedStore struct {
	staged *fakeRepo
}

func (r *fakeRepo) snapshot() *fakeRepo {
	c := newFakeRepo()
	c.nextID = r.nextID
	c.failInsertBlock = r.failInsertBlock
	c.insertPostErr = r.insertPostErr
	for k, v := range r.posts {
		p := *v
		c.posts[k] = &p
	}
	for k, v := range r.blocks {
		c.blocks[k] = append([]Block(nil), v...)
	}
	for k, v := range r.categories {
		c.categories[k] = v
	}
	for k, v := range r.series {
		c.series[k] = v
	}
	for k, v := range r.tags {
		c.tags[k] = v
	}
	for k, v := range r.tagLinks {
		c.tagLinks[k] = append([]int64(nil), v...)
	}
	for k, v := range r.postSeries {
		c.postSeries[k] = v
	}
	for k, v := range r.views {
		c.views[k] = v
	}
	return c
}

func (r *fakeRepo) adopt(staged *fakeRepo) {
	r.nextID = staged.nextID
	r.posts = staged.posts
	r.blocks = staged.blocks
	r.categories = staged.categories
	r.series = staged.series
	r.tags = staged.tags
	r.tagLinks = staged.tagLinks
	r.postSeries = staged.postSeries
	r.views = staged.views
}

func (r *fakeRepo) InTx(_ context.Context, fn func(Store) error) error {
	staged := r.snapshot()
	if err := fn(&stagedStore{staged: staged}); err != nil {
		return err
	}
	r.adopt(staged)
	return nil
}

func (s *stagedStore) UpsertCategory(_ context.Context, name, slug string) (Category, error) {
	if c, ok := s.staged.categories[name]; ok {
		return c, nil
	}
	s.staged.nextID++
	c := Category{ID: s.staged.nextID, Name: name, Slug: slug}
	s.staged.categories[name] = c
	return c, nil
}

func (s *stagedStore) InsertPost(_ context.Context, post *Post) error {
	if s.staged.insertPostErr != nil {
		return s.staged.insertPostErr
	}
	s.staged.nextID++
	post.ID = s.staged.nextID
	p := *post
	s.staged.posts[post.ID] = &p
	return nil
}

func (s *stagedStore) InsertBlock(_ context.Context, postID int64, block Block) error {
	if s.staged.failInsertBlock {
		return errors.New("insert block failed")
	}
	s.staged.blocks[postID] = append(s.staged.blocks[postID], block)
	return nil
}

func (s *stagedStore) UpsertSeries(_ context.Context, name, slug, description string) (Series, error) {
	if sr, ok := s.staged.series[name]; ok {
		return sr, nil
	}
	s.staged.nextID++
	sr := Series{ID: s.staged.nextID, Name: name, Slug: slug, Description: description}
	s.staged.series[name] = sr
	return sr, nil
}

func (s *stagedStore) AttachSeries(_ context.Context, postID, seriesID int64, part *int) error {
	s.staged.postSeries[postID] = seriesID
	return nil
}

func (s *stagedStore) CountSeriesPosts(_ context.Context, seriesID int64) (int, error) {
	count := 0
	for _, sid := range s.staged.postSeries {
		if sid == seriesID {
			count++
		}
	}
	return count, nil
}

func (s *stagedStore) SetSeriesTotalParts(_ context.Context, seriesID int64, total int) error {
	for name, sr := range s.staged.series {
		if sr.ID == seriesID {
			sr.TotalParts = total
			s.staged.series[name] = sr
		}
	}
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

func (s *stagedStore) AttachTag(_ context.Context, postID, tagID int64) error {
	s.staged.tagLinks[postID] = append(s.staged.tagLinks[postID], tagID)
	return nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (*Post, error) {
	for _, p := range r.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*Post, error) {
	if p, ok := r.posts[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter, _, _ int64) ([]Post, error) {
	out := make([]Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeRepo) ListCards(_ context.Context, _ CardFilter, _, _ int64) ([]Card, error) {
	return nil, nil
}

func (r *fakeRepo) IncrementViews(_ context.Context, id int64) error {
	r.views[id]++
	return nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, fields map[string]interface{}) error {
	p, ok := r.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if title, ok := fields["title"].(string); ok {
		p.Title = title
	}
	if subtitle, ok := fields["subtitle"].(string); ok {
		p.Subtitle = subtitle
	}
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.posts[id]; !ok {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

func imageFile(name string) storage.File {
	return storage.File{Name: name, ContentType: "image/png", Data: []byte{1}}
}

func TestCreateDerivesSlugAndWordCount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	post, err := svc.Create(context.Background(), CreateRequest{
		Title: "Hello, World!",
		Blocks: []Block{
			{Kind: BlockParagraph, Order: 1, Content: "a b c", Attrs: ParagraphAttrs{Style: "normal"}},
			{Kind: BlockParagraph, Order: 2, Content: "d e", Attrs: ParagraphAttrs{Style: "normal"}},
		},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Fatalf("expected slug hello-world, got %q", post.Slug)
	}
	if post.WordCount != 5 {
		t.Fatalf("expected word count 5, got %d", post.WordCount)
	}
	if post.ReadTime != 5 {
		t.Fatalf("expected default read time 5, got %d", post.ReadTime)
	}
	if post.Author != (Author{Name: "David Rodriguez", Bio: "Full-stack developer"}) {
		t.Fatalf("expected default author, got %+v", post.Author)
	}
	if len(repo.blocks[post.ID]) != 2 {
		t.Fatalf("expected 2 committed blocks, got %d", len(repo.blocks[post.ID]))
	}
}

func TestCreateUploadFailureAbortsEverything(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{fail: "hero.png"}
	svc := NewService(repo, uploader)

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:     "Broken Upload",
		HeroImage: &storage.File{Name: "hero.png", ContentType: "image/png"},
		Category:  &CategoryInput{Name: "Go"},
		Tags:      []TagInput{{Name: "x"}},
	})
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if len(repo.posts) != 0 || len(repo.categories) != 0 || len(repo.tags) != 0 {
		t.Fatal("no row may be persisted when an upload fails")
	}
}

func TestCreateTransactionFailureDiscardsAllWrites(t *testing.T) {
	repo := newFakeRepo()
	repo.failInsertBlock = true
	svc := NewService(repo, &fakeUploader{})

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:    "Doomed Post",
		Category: &CategoryInput{Name: "Go"},
		Series:   &SeriesInput{Name: "Foo"},
		Tags:     []TagInput{{Name: "x"}},
		Blocks:   []Block{{Kind: BlockParagraph, Content: "words here", Attrs: ParagraphAttrs{Style: "normal"}}},
	})
	if err == nil {
		t.Fatal("expected error from failing block insert")
	}
	if len(repo.posts) != 0 || len(repo.categories) != 0 || len(repo.series) != 0 || len(repo.tags) != 0 {
		t.Fatal("transaction failure must leave no visible state")
	}
}

func TestCreateImageCountMismatchRejectedBeforeUpload(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	svc := NewService(repo, uploader)

	_, err := svc.Create(context.Background(), CreateRequest{
		Title:         "Mismatch",
		ContentImages: []storage.File{imageFile("a.png"), imageFile("b.png")},
		Blocks:        []Block{{Kind: BlockImage, Attrs: ImageAttrs{Alignment: "center"}}},
	})
	if !errors.Is(err, ErrImageCountMismatch) {
		t.Fatalf("expected ErrImageCountMismatch, got %v", err)
	}
	if len(uploader.calls) != 0 {
		t.Fatal("nothing may be uploaded when counts mismatch")
	}
}

func TestCreateAssignsContentImagesPositionally(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	post, err := svc.Create(context.Background(), CreateRequest{
		Title: "With Images",
		Blocks: []Block{
			{Kind: BlockImage, Order: 1, Attrs: ImageAttrs{Alignment: "center"}},
			{Kind: BlockParagraph, Order: 2, Content: "text", Attrs: ParagraphAttrs{Style: "normal"}},
			{Kind: BlockImage, Order: 3, Attrs: ImageAttrs{Alignment: "center"}},
		},
		ContentImages: []storage.File{imageFile("first.png"), imageFile("second.png")},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	first, ok := post.Blocks[0].Attrs.(ImageAttrs)
	if !ok || first.URL == "" {
		t.Fatalf("first IMAGE block missing URL: %+v", post.Blocks[0].Attrs)
	}
	third, ok := post.Blocks[2].Attrs.(ImageAttrs)
	if !ok || third.URL == "" {
		t.Fatalf("second IMAGE block missing URL: %+v", post.Blocks[2].Attrs)
	}
	if first.URL == third.URL {
		t.Fatal("each IMAGE block must receive a distinct upload URL")
	}
}

func TestCreateSeriesTotalPartsRecomputed(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	post1, err := svc.Create(context.Background(), CreateRequest{
		Title:  "Part One",
		Series: &SeriesInput{Name: "Foo"},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if post1.Series.TotalParts != 1 {
		t.Fatalf("expected totalParts 1, got %d", post1.Series.TotalParts)
	}

	post2, err := svc.Create(context.Background(), CreateRequest{
		Title:  "Part Two",
		Series: &SeriesInput{Name: "Foo"},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if post2.Series.TotalParts != 2 {
		t.Fatalf("expected totalParts 2, got %d", post2.Series.TotalParts)
	}
	if len(repo.series) != 1 {
		t.Fatalf("expected exactly one series row, got %d", len(repo.series))
	}
}

func TestCreateTagUpsertIsReferentiallyStable(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	for _, title := range []string{"First Post", "Second Post"} {
		if _, err := svc.Create(context.Background(), CreateRequest{
			Title: title,
			Tags:  []TagInput{{Name: "x"}},
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
	repo.insertPostErr = &pgconn.PgError{Code: "23505"}
	svc := NewService(repo, &fakeUploader{})

	_, err := svc.Create(context.Background(), CreateRequest{Title: "Twice"})
	if !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestGetBySlugIncrementsViews(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	post, err := svc.Create(context.Background(), CreateRequest{Title: "Counted"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.GetBySlug(context.Background(), post.Slug); err != nil {
			t.Fatalf("GetBySlug error: %v", err)
		}
	}
	if repo.views[post.ID] != 3 {
		t.Fatalf("expected 3 view increments, got %d", repo.views[post.ID])
	}
}

func TestGetBySlugUnknown(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	_, err := svc.GetBySlug(context.Background(), "unknown-slug")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateShallowMerge(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	post, err := svc.Create(context.Background(), CreateRequest{Title: "Original", Subtitle: "keep me"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	newTitle := "Renamed"
	updated, err := svc.Update(context.Background(), post.ID, UpdateRequest{Title: &newTitle})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.Subtitle != "keep me" {
		t.Fatalf("unsupplied fields must be untouched, got %q", updated.Subtitle)
	}
}

func TestDeleteUnknown(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{})

	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
