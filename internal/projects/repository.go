package projects

import (
	"context"
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
	InsertProject(ctx context.Context, project *Project) error
	SetOverview(ctx context.Context, projectID int64, o Overview) error
	SetMetrics(ctx context.Context, projectID int64, m Metrics) error
	SetTechnicalDetails(ctx context.Context, projectID int64, d TechnicalDetails) error
	AddEntries(ctx context.Context, projectID int64, list EntryList, values []string) error
	AddPerformanceMetric(ctx context.Context, projectID int64, m PerformanceMetric) error
	AddScreenshot(ctx context.Context, projectID int64, s Screenshot) error
	AddTechnology(ctx context.Context, projectID int64, t Technology) error
	UpsertTag(ctx context.Context, name, slug string) (Tag, error)
	AttachTag(ctx context.Context, projectID, tagID int64) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(Store) error) error
	GetBySlug(ctx context.Context, slug string) (*Project, error)
	GetByID(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Project, error)
	ListCards(ctx context.Context, filter ListFilter, limit, offset int64) ([]Card, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// EntryList names one of the array-valued sub-record tables. Table and
// column names come from this closed set, never from request data.
type EntryList struct {
	table  string
	column string
}

var (
	Lessons          = EntryList{"project_lessons", "description"}
	BusinessOutcomes = EntryList{"project_business_outcomes", "description"}
	Improvements     = EntryList{"project_improvements", "description"}
	NextSteps        = EntryList{"project_next_steps", "description"}
	FutureTools      = EntryList{"project_future_tools", "name"}
)

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

type pgStore struct {
	q querier
}

func (s *pgStore) InsertProject(ctx context.Context, project *Project) error {
	return s.q.QueryRow(ctx, `
		INSERT INTO projects (
			title, subtitle, slug, status, hero_image,
			live_demo, github, case_study, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		project.Title, project.Subtitle, project.Slug, project.Status, project.HeroImage,
		project.LiveDemo, project.GitHub, project.CaseStudy, project.PublishedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (s *pgStore) SetOverview(ctx context.Context, projectID int64, o Overview) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_overview (project_id, problem, solution, role, impact)
		VALUES ($1, $2, $3, $4, $5)`,
		projectID, o.Problem, o.Solution, o.Role, o.Impact,
	)
	return err
}

func (s *pgStore) SetMetrics(ctx context.Context, projectID int64, m Metrics) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_metrics (project_id, launch_date, duration, team_size)
		VALUES ($1, $2, $3, $4)`,
		projectID, m.LaunchDate, m.Duration, m.TeamSize,
	)
	return err
}

func (s *pgStore) SetTechnicalDetails(ctx context.Context, projectID int64, d TechnicalDetails) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_technical_details (project_id, database_info, api, components)
		VALUES ($1, $2, $3, $4)`,
		projectID, d.Database, d.API, d.Components,
	)
	return err
}

func (s *pgStore) AddEntries(ctx context.Context, projectID int64, list EntryList, values []string) error {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		_, err := s.q.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (project_id, %s) VALUES ($1, $2)`, list.table, list.column),
			projectID, value,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *pgStore) AddPerformanceMetric(ctx context.Context, projectID int64, m PerformanceMetric) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_performance_metrics (project_id, label, value)
		VALUES ($1, $2, $3)`,
		projectID, m.Label, m.Value,
	)
	return err
}

func (s *pgStore) AddScreenshot(ctx context.Context, projectID int64, sc Screenshot) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_screenshots (project_id, url, description, ord)
		VALUES ($1, $2, $3, $4)`,
		projectID, sc.URL, sc.Description, sc.Order,
	)
	return err
}

func (s *pgStore) AddTechnology(ctx context.Context, projectID int64, t Technology) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_technologies (project_id, name, reason)
		VALUES ($1, $2, $3)`,
		projectID, t.Name, t.Reason,
	)
	return err
}

func (s *pgStore) UpsertTag(ctx context.Context, name, slug string) (Tag, error) {
	// DO UPDATE with the same name is a no-op that lets RETURNING see the
	// existing row; existing fields are never refreshed.
	var t Tag
	err := s.q.QueryRow(ctx, `
		INSERT INTO project_tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug`,
		name, slug,
	).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

func (s *pgStore) AttachTag(ctx context.Context, projectID, tagID int64) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_tag_links (project_id, project_tag_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		projectID, tagID,
	)
	return err
}

const projectSelect = `
	SELECT id, title, subtitle, slug, status, hero_image, live_demo,
		github, case_study, published_at, created_at, updated_at
	FROM projects`

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	return r.getOne(ctx, projectSelect+` WHERE slug = $1`, slug)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Project, error) {
	return r.getOne(ctx, projectSelect+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*Project, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Project, error) {
	where, args := filterPredicates(filter)

	query := projectSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := r.loadRelations(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (r *PostgresRepository) ListCards(ctx context.Context, filter ListFilter, limit, offset int64) ([]Card, error) {
	where, args := filterPredicates(filter)

	query := `
		SELECT id, title, subtitle, slug, status, hero_image, live_demo, github, created_at
		FROM projects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]Card, 0)
	for rows.Next() {
		var card Card
		if err := rows.Scan(
			&card.ID, &card.Title, &card.Description, &card.Slug, &card.Status,
			&card.HeroImage, &card.LiveDemo, &card.GitHub, &card.CreatedAt,
		); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cards {
		tech, err := r.loadTechnologies(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Tech = make([]string, 0, len(tech))
		for _, t := range tech {
			cards[i].Tech = append(cards[i].Tech, t.Name)
		}

		tags, err := r.loadTags(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Tags = make([]CardTag, 0, len(tags))
		for _, t := range tags {
			cards[i].Tags = append(cards[i].Tags, CardTag{Name: t.Name, Slug: t.Slug})
		}
	}
	return cards, nil
}

func filterPredicates(filter ListFilter) ([]string, []interface{}) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM project_tag_links j
			JOIN project_tags t ON t.id = j.project_tag_id
			WHERE j.project_id = projects.id AND t.slug = $%d)`, len(args)))
	}
	return where, args
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
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
		fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)),
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Status, &p.HeroImage,
		&p.LiveDemo, &p.GitHub, &p.CaseStudy, &p.PublishedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) loadRelations(ctx context.Context, p *Project) error {
	var err error
	if p.Overview, err = r.loadOverview(ctx, p.ID); err != nil {
		return err
	}
	if p.Metrics, err = r.loadMetrics(ctx, p.ID); err != nil {
		return err
	}
	if p.TechnicalDetails, err = r.loadTechnicalDetails(ctx, p.ID); err != nil {
		return err
	}
	if p.Lessons, err = r.loadEntries(ctx, p.ID, Lessons); err != nil {
		return err
	}
	if p.BusinessOutcomes, err = r.loadEntries(ctx, p.ID, BusinessOutcomes); err != nil {
		return err
	}
	if p.Improvements, err = r.loadEntries(ctx, p.ID, Improvements); err != nil {
		return err
	}
	if p.NextSteps, err = r.loadEntries(ctx, p.ID, NextSteps); err != nil {
		return err
	}
	if p.FutureTools, err = r.loadEntries(ctx, p.ID, FutureTools); err != nil {
		return err
	}
	if p.PerformanceMetrics, err = r.loadPerformanceMetrics(ctx, p.ID); err != nil {
		return err
	}
	if p.Screenshots, err = r.loadScreenshots(ctx, p.ID); err != nil {
		return err
	}
	if p.Technologies, err = r.loadTechnologies(ctx, p.ID); err != nil {
		return err
	}
	if p.Tags, err = r.loadTags(ctx, p.ID); err != nil {
		return err
	}
	return nil
}

func (r *PostgresRepository) loadOverview(ctx context.Context, projectID int64) (*Overview, error) {
	var o Overview
	err := r.pool.QueryRow(ctx, `
		SELECT problem, solution, role, impact FROM project_overview
		WHERE project_id = $1`, projectID,
	).Scan(&o.Problem, &o.Solution, &o.Role, &o.Impact)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) loadMetrics(ctx context.Context, projectID int64) (*Metrics, error) {
	var m Metrics
	err := r.pool.QueryRow(ctx, `
		SELECT launch_date, duration, team_size FROM project_metrics
		WHERE project_id = $1`, projectID,
	).Scan(&m.LaunchDate, &m.Duration, &m.TeamSize)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) loadTechnicalDetails(ctx context.Context, projectID int64) (*TechnicalDetails, error) {
	var d TechnicalDetails
	err := r.pool.QueryRow(ctx, `
		SELECT database_info, api, components FROM project_technical_details
		WHERE project_id = $1`, projectID,
	).Scan(&d.Database, &d.API, &d.Components)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresRepository) loadEntries(ctx context.Context, projectID int64, list EntryList) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE project_id = $1 ORDER BY id ASC`, list.column, list.table),
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *PostgresRepository) loadPerformanceMetrics(ctx context.Context, projectID int64) ([]PerformanceMetric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, value FROM project_performance_metrics
		WHERE project_id = $1 ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]PerformanceMetric, 0)
	for rows.Next() {
		var m PerformanceMetric
		if err := rows.Scan(&m.Label, &m.Value); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (r *PostgresRepository) loadScreenshots(ctx context.Context, projectID int64) ([]Screenshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT url, description, ord FROM project_screenshots
		WHERE project_id = $1 ORDER BY ord ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shots := make([]Screenshot, 0)
	for rows.Next() {
		var s Screenshot
		if err := rows.Scan(&s.URL, &s.Description, &s.Order); err != nil {
			return nil, err
		}
		shots = append(shots, s)
	}
	return shots, rows.Err()
}

func (r *PostgresRepository) loadTechnologies(ctx context.Context, projectID int64) ([]Technology, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, reason FROM project_technologies
		WHERE project_id = $1 ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	techs := make([]Technology, 0)
	for rows.Next() {
		var t Technology
		if err := rows.Scan(&t.Name, &t.Reason); err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return techs, rows.Err()
}

func (r *PostgresRepository) loadTags(ctx context.Context, projectID int64) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug FROM project_tags t
		JOIN project_tag_links j ON j.project_tag_id = t.id
		WHERE j.project_id = $1 ORDER BY t.name ASC`, projectID)
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
