package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the unit-of-work handle for one atomic set of writes. Every
// method runs inside the same transaction; the orchestrating service
// commits once via Repository.InTx.
type Store interface {
	UpsertCategory(ctx context.Context, name, slug string) (Category, error)
	InsertPost(ctx context.Context, post *Post) error
	InsertBlock(ctx context.Context, postID int64, block Block) error
	UpsertSeries(ctx context.Context, name, slug, description string) (Series, error)
	AttachSeries(ctx context.Context, postID, seriesID int64, part *int) error
	CountSeriesPosts(ctx context.Context, seriesID int64) (int, error)
	SetSeriesTotalParts(ctx context.Context, seriesID int64, total int) error
	UpsertTag(ctx context.Context, name, slug string) (Tag, error)
	AttachTag(ctx context.Context, postID, tagID int64) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(Store) error) error
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Post, error)
	ListCards(ctx context.Context, filter CardFilter, limit, offset int64) ([]Card, error)
	IncrementViews(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgStore implements Store against one open transaction.
type pgStore struct {
	q querier
}

func (s *pgStore) UpsertCategory(ctx context.Context, name, slug string) (Category, error) {
	// DO UPDATE with the same name is a no-op that lets RETURNING see the
	// existing row; existing fields are never refreshed.
	var c Category
	err := s.q.QueryRow(ctx, `
		INSERT INTO categories (name, slug) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug`,
		name, slug,
	).Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}

func (s *pgStore) InsertPost(ctx context.Context, post *Post) error {
	authorJSON, err := json.Marshal(post.Author)
	if err != nil {
		return err
	}

	var categoryID interface{}
	if post.Category != nil {
		categoryID = post.Category.ID
	}

	return s.q.QueryRow(ctx, `
		INSERT INTO blog_posts (
			title, subtitle, slug, excerpt, meta_description,
			hero_image, hero_image_alt, hero_image_caption, social_image,
			read_time, word_count, author, published_at, category_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, views, created_at, updated_at`,
		post.Title, post.Subtitle, post.Slug, post.Excerpt, post.MetaDescription,
		post.HeroImage, post.HeroImageAlt, post.HeroImageCaption, post.SocialImage,
		post.ReadTime, post.WordCount, authorJSON, post.PublishedAt, categoryID,
	).Scan(&post.ID, &post.Views, &post.CreatedAt, &post.UpdatedAt)
}

func (s *pgStore) InsertBlock(ctx context.Context, postID int64, block Block) error {
	attrs, err := attrsToJSON(block.Attrs)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO content_blocks (blog_post_id, kind, ord, content, attrs)
		VALUES ($1, $2, $3, $4, $5)`,
		postID, string(block.Kind), block.Order, block.Content, attrs,
	)
	return err
}

func (s *pgStore) UpsertSeries(ctx context.Context, name, slug, description string) (Series, error) {
	var sr Series
	var desc *string
	err := s.q.QueryRow(ctx, `
		INSERT INTO series (name, slug, description) VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, description, total_parts`,
		name, slug, description,
	).Scan(&sr.ID, &sr.Name, &sr.Slug, &desc, &sr.TotalParts)
	if desc != nil {
		sr.Description = *desc
	}
	return sr, err
}

func (s *pgStore) AttachSeries(ctx context.Context, postID, seriesID int64, part *int) error {
	_, err := s.q.Exec(ctx, `
		UPDATE blog_posts SET series_id = $2, series_part = $3 WHERE id = $1`,
		postID, seriesID, part,
	)
	return err
}

func (s *pgStore) CountSeriesPosts(ctx context.Context, seriesID int64) (int, error) {
	var count int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM blog_posts WHERE series_id = $1`, seriesID,
	).Scan(&count)
	return count, err
}

func (s *pgStore) SetSeriesTotalParts(ctx context.Context, seriesID int64, total int) error {
	_, err := s.q.Exec(ctx,
		`UPDATE series SET total_parts = $2 WHERE id = $1`, seriesID, total,
	)
	return err
}

func (s *pgStore) UpsertTag(ctx context.Context, name, slug string) (Tag, error) {
	var t Tag
	err := s.q.QueryRow(ctx, `
		INSERT INTO blog_tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug`,
		name, slug,
	).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

func (s *pgStore) AttachTag(ctx context.Context, postID, tagID int64) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO blog_post_tags (blog_post_id, blog_tag_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, tagID,
	)
	return err
}

const postSelect = `
	SELECT p.id, p.title, p.subtitle, p.slug, p.excerpt, p.meta_description,
		p.hero_image, p.hero_image_alt, p.hero_image_caption, p.social_image,
		p.read_time, p.word_count, p.views, p.author, p.published_at,
		p.series_part, p.created_at, p.updated_at,
		c.id, c.name, c.slug,
		s.id, s.name, s.slug, s.description, s.total_parts
	FROM blog_posts p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN series s ON s.id = p.series_id`

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	return r.getOne(ctx, postSelect+` WHERE p.slug = $1`, slug)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	return r.getOne(ctx, postSelect+` WHERE p.id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*Post, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Post, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if filter.Published != nil && *filter.Published {
		where = append(where, "p.published_at IS NOT NULL")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.Series != "" {
		args = append(args, filter.Series)
		where = append(where, fmt.Sprintf("s.slug = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM blog_post_tags j
			JOIN blog_tags t ON t.id = j.blog_tag_id
			WHERE j.blog_post_id = p.id AND t.slug = $%d)`, len(args)))
	}

	query := postSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if err := r.loadRelations(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (r *PostgresRepository) ListCards(ctx context.Context, filter CardFilter, limit, offset int64) ([]Card, error) {
	where := []string{"p.published_at IS NOT NULL"}
	args := make([]interface{}, 0, 4)

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM blog_post_tags j
			JOIN blog_tags t ON t.id = j.blog_tag_id
			WHERE j.blog_post_id = p.id AND t.slug = $%d)`, len(args)))
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.subtitle, p.excerpt, p.slug, p.hero_image,
			p.read_time, p.views, p.published_at,
			c.id, c.name, c.slug
		FROM blog_posts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY p.published_at DESC LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]Card, 0)
	for rows.Next() {
		var card Card
		var catID *int64
		var catName, catSlug *string
		if err := rows.Scan(
			&card.ID, &card.Title, &card.Subtitle, &card.Excerpt, &card.Slug,
			&card.HeroImage, &card.ReadTime, &card.Views, &card.PublishedAt,
			&catID, &catName, &catSlug,
		); err != nil {
			return nil, err
		}
		if catID != nil {
			card.Category = &Category{ID: *catID, Name: *catName, Slug: *catSlug}
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cards {
		tags, err := r.loadTags(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Tags = tags
	}
	return cards, nil
}

// IncrementViews is atomic at the storage layer; concurrent detail reads
// accumulate without loss.
func (r *PostgresRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE blog_posts SET views = views + 1 WHERE id = $1`, id,
	)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		fields = map[string]interface{}{}
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, time.Now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf("UPDATE blog_posts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanPost(row pgx.Row) (*Post, error) {
	var post Post
	var authorJSON []byte
	var catID, serID *int64
	var catName, catSlug, serName, serSlug, serDesc *string
	var serTotal *int

	err := row.Scan(
		&post.ID, &post.Title, &post.Subtitle, &post.Slug, &post.Excerpt,
		&post.MetaDescription, &post.HeroImage, &post.HeroImageAlt,
		&post.HeroImageCaption, &post.SocialImage, &post.ReadTime,
		&post.WordCount, &post.Views, &authorJSON, &post.PublishedAt,
		&post.SeriesPart, &post.CreatedAt, &post.UpdatedAt,
		&catID, &catName, &catSlug,
		&serID, &serName, &serSlug, &serDesc, &serTotal,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(authorJSON, &post.Author); err != nil {
		return nil, err
	}
	if catID != nil {
		post.Category = &Category{ID: *catID, Name: *catName, Slug: *catSlug}
	}
	if serID != nil {
		series := &Series{ID: *serID, Name: *serName, Slug: *serSlug, TotalParts: *serTotal}
		if serDesc != nil {
			series.Description = *serDesc
		}
		post.Series = series
	}
	return &post, nil
}

func (r *PostgresRepository) loadRelations(ctx context.Context, post *Post) error {
	blocks, err := r.loadBlocks(ctx, post.ID)
	if err != nil {
		return err
	}
	post.Blocks = blocks

	tags, err := r.loadTags(ctx, post.ID)
	if err != nil {
		return err
	}
	post.Tags = tags
	return nil
}

func (r *PostgresRepository) loadBlocks(ctx context.Context, postID int64) ([]Block, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, ord, content, attrs FROM content_blocks
		WHERE blog_post_id = $1 ORDER BY ord ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]Block, 0)
	for rows.Next() {
		var kind string
		var block Block
		var attrs []byte
		if err := rows.Scan(&kind, &block.Order, &block.Content, &attrs); err != nil {
			return nil, err
		}
		block.Kind = BlockKind(kind)
		block.Attrs, err = attrsFromJSON(block.Kind, attrs)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func (r *PostgresRepository) loadTags(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug FROM blog_tags t
		JOIN blog_post_tags j ON j.blog_tag_id = t.id
		WHERE j.blog_post_id = $1 ORDER BY t.name ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
