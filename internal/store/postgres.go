// Package store provides the persistence implementations for blog and
// diagram records, backed by Postgres or process memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresConfig controls the shared connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// NewPool opens a pgx pool from config.
func NewPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

var blogColumns = []string{
	"id", "user_id", "original_url", "source", "title", "slug",
	"markdown", "summary", "highlights", "tags", "language",
	"processing_status", "content_hash", "reading_time_minutes",
	"published", "published_at", "archive_uri",
	"diagram_status", "diagram_error", "diagram_ids",
	"created_at", "updated_at",
}

// PostgresBlogStore implements pipeline.BlogStore.
type PostgresBlogStore struct {
	pool querier
}

// NewPostgresBlogStore wraps an open pool.
func NewPostgresBlogStore(pool querier) *PostgresBlogStore {
	return &PostgresBlogStore{pool: pool}
}

// Close releases the pool.
func (s *PostgresBlogStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresBlogStore) findBy(ctx context.Context, field, value string) (*pipeline.Blog, error) {
	query, args, err := psql.Select(blogColumns...).
		From("blogs").
		Where(sq.Eq{field: value}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	blog, err := scanBlog(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("find blog by %s: %w", field, err)
	}
	return blog, nil
}

// FindByURL looks up the record for a logical source URL.
func (s *PostgresBlogStore) FindByURL(ctx context.Context, url string) (*pipeline.Blog, error) {
	return s.findBy(ctx, "original_url", url)
}

// FindByID looks up a record by primary key.
func (s *PostgresBlogStore) FindByID(ctx context.Context, id string) (*pipeline.Blog, error) {
	return s.findBy(ctx, "id", id)
}

// FindBySlug looks up a record by its unique slug.
func (s *PostgresBlogStore) FindBySlug(ctx context.Context, slug string) (*pipeline.Blog, error) {
	return s.findBy(ctx, "slug", slug)
}

// List returns the most recently created records.
func (s *PostgresBlogStore) List(ctx context.Context, limit int) ([]pipeline.Blog, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := psql.Select(blogColumns...).
		From("blogs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []pipeline.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog row: %w", err)
		}
		blogs = append(blogs, *blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog rows: %w", err)
	}
	return blogs, nil
}

// Create inserts a new record.
func (s *PostgresBlogStore) Create(ctx context.Context, blog *pipeline.Blog) error {
	query, args, err := psql.Insert("blogs").
		Columns(blogColumns...).
		Values(blogValues(blog)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

// Update rewrites all mutable columns of an existing record.
func (s *PostgresBlogStore) Update(ctx context.Context, blog *pipeline.Blog) error {
	builder := psql.Update("blogs").Where(sq.Eq{"id": blog.ID})
	values := blogValues(blog)
	for i, col := range blogColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		builder = builder.Set(col, values[i])
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update blog %q: %w", blog.ID, pipeline.ErrNotFound)
	}
	return nil
}

func blogValues(b *pipeline.Blog) []any {
	return []any{
		b.ID, b.UserID, b.OriginalURL, b.Source, b.Title, b.Slug,
		b.Markdown, b.Summary, b.Highlights, b.Tags, b.Language,
		string(b.ProcessingStatus), b.ContentHash, b.ReadingTimeMinutes,
		b.Published, b.PublishedAt, b.ArchiveURI,
		string(b.DiagramStatus), b.DiagramError, b.DiagramIDs,
		b.CreatedAt, b.UpdatedAt,
	}
}

func scanBlog(row pgx.Row) (*pipeline.Blog, error) {
	var b pipeline.Blog
	var processing, diagram string
	err := row.Scan(
		&b.ID, &b.UserID, &b.OriginalURL, &b.Source, &b.Title, &b.Slug,
		&b.Markdown, &b.Summary, &b.Highlights, &b.Tags, &b.Language,
		&processing, &b.ContentHash, &b.ReadingTimeMinutes,
		&b.Published, &b.PublishedAt, &b.ArchiveURI,
		&diagram, &b.DiagramError, &b.DiagramIDs,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.ProcessingStatus = pipeline.ProcessingStatus(processing)
	b.DiagramStatus = pipeline.DiagramStatus(diagram)
	return &b, nil
}

var diagramColumns = []string{
	"id", "blog_id", "user_id", "type", "title", "explanation",
	"structure_data", "status", "error", "created_at",
}

// PostgresDiagramStore implements pipeline.DiagramStore.
type PostgresDiagramStore struct {
	pool querier
}

// NewPostgresDiagramStore wraps an open pool.
func NewPostgresDiagramStore(pool querier) *PostgresDiagramStore {
	return &PostgresDiagramStore{pool: pool}
}

// FindByID looks up one diagram.
func (s *PostgresDiagramStore) FindByID(ctx context.Context, id string) (*pipeline.Diagram, error) {
	query, args, err := psql.Select(diagramColumns...).
		From("diagrams").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	d, err := scanDiagram(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("find diagram: %w", err)
	}
	return d, nil
}

// ListByBlog returns all diagrams owned by a blog.
func (s *PostgresDiagramStore) ListByBlog(ctx context.Context, blogID string) ([]pipeline.Diagram, error) {
	query, args, err := psql.Select(diagramColumns...).
		From("diagrams").
		Where(sq.Eq{"blog_id": blogID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer rows.Close()

	var diagrams []pipeline.Diagram
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagram row: %w", err)
		}
		diagrams = append(diagrams, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagram rows: %w", err)
	}
	return diagrams, nil
}

// Create inserts a validated diagram.
func (s *PostgresDiagramStore) Create(ctx context.Context, d *pipeline.Diagram) error {
	query, args, err := psql.Insert("diagrams").
		Columns(diagramColumns...).
		Values(
			d.ID, d.BlogID, d.UserID, d.Type, d.Title, d.Explanation,
			[]byte(d.StructureData), string(d.Status), d.Error, d.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert diagram: %w", err)
	}
	return nil
}

func scanDiagram(row pgx.Row) (*pipeline.Diagram, error) {
	var d pipeline.Diagram
	var status string
	var structure []byte
	err := row.Scan(
		&d.ID, &d.BlogID, &d.UserID, &d.Type, &d.Title, &d.Explanation,
		&structure, &status, &d.Error, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.StructureData = structure
	d.Status = pipeline.DiagramRecordStatus(status)
	return &d, nil
}
