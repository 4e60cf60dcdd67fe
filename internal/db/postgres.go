package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the relational schema on startup. Statements are
// idempotent; dependent rows are removed through ON DELETE CASCADE rather
// than application-level cleanup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS series (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		description TEXT,
		total_parts INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blog_tags (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL UNIQUE,
		excerpt TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		hero_image TEXT NOT NULL DEFAULT '',
		hero_image_alt TEXT NOT NULL DEFAULT '',
		hero_image_caption TEXT NOT NULL DEFAULT '',
		social_image TEXT NOT NULL DEFAULT '',
		read_time INT NOT NULL DEFAULT 5,
		word_count INT NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		author JSONB NOT NULL,
		published_at TIMESTAMPTZ,
		category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
		series_id BIGINT REFERENCES series(id) ON DELETE SET NULL,
		series_part INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS content_blocks (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		blog_post_id BIGINT NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		ord INT NOT NULL DEFAULT 0,
		content TEXT NOT NULL DEFAULT '',
		attrs JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS content_blocks_post_idx ON content_blocks (blog_post_id, ord)`,
	`CREATE TABLE IF NOT EXISTS blog_post_tags (
		blog_post_id BIGINT NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
		blog_tag_id BIGINT NOT NULL REFERENCES blog_tags(id) ON DELETE CASCADE,
		PRIMARY KEY (blog_post_id, blog_tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
		hero_image TEXT NOT NULL DEFAULT '',
		live_demo TEXT NOT NULL DEFAULT '',
		github TEXT NOT NULL DEFAULT '',
		case_study TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS project_overview (
		project_id BIGINT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		problem TEXT NOT NULL DEFAULT '',
		solution TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		impact TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS project_metrics (
		project_id BIGINT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		launch_date TEXT NOT NULL DEFAULT '',
		duration TEXT NOT NULL DEFAULT '',
		team_size TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS project_technical_details (
		project_id BIGINT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		database_info TEXT NOT NULL DEFAULT '',
		api TEXT NOT NULL DEFAULT '',
		components TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS project_lessons (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_business_outcomes (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_improvements (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_next_steps (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_future_tools (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_performance_metrics (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS project_screenshots (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		ord INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS project_screenshots_idx ON project_screenshots (project_id, ord)`,
	`CREATE TABLE IF NOT EXISTS project_technologies (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS project_tags (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS project_tag_links (
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		project_tag_id BIGINT NOT NULL REFERENCES project_tags(id) ON DELETE CASCADE,
		PRIMARY KEY (project_id, project_tag_id)
	)`,
}
