package content

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	_ "github.com/mattn/go-sqlite3"    // database/sql driver "sqlite3"
	"github.com/pressly/goose/v3"

	"tamilstream/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

// SQLDialect names the database family behind an SQLStore.
type SQLDialect string

const (
	DialectPostgres SQLDialect = "postgres"
	DialectSQLite   SQLDialect = "sqlite"
)

// SQLStore keeps the catalog in PostgreSQL (pgx) or SQLite (go-sqlite3). Genres and
// episode lists are stored as JSON text so one schema serves both.
type SQLStore struct {
	db      *sql.DB
	dialect SQLDialect
}

var _ Repository = (*SQLStore)(nil)

// OpenSQLStore connects, waits for the database to answer and applies migrations.
func OpenSQLStore(ctx context.Context, dialect SQLDialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sql store: %w", ErrStorePathRequired)
	}

	driver := "pgx"
	if dialect == DialectSQLite {
		driver = "sqlite3"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// a single connection keeps :memory: databases shared and serialises writers
		db.SetMaxOpenConns(1)
	}

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[content] database not ready (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if err := migrate(db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("[content] %s store ready", dialect)
	return &SQLStore{db: db, dialect: dialect}, nil
}

func migrate(db *sql.DB, dialect SQLDialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	gooseDialect := "postgres"
	if dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const contentColumns = `id, imdb_id, title, content_type, poster, background, description, year, rating, genres, runtime, channel, source_url, videos`

const torrentColumns = `id, content_id, info_hash, title, size, size_readable, quality, seeders, leechers, source, magnet`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (models.Content, error) {
	var (
		item        models.Content
		contentType string
		genres      string
		videos      string
	)
	if err := row.Scan(&item.ID, &item.IMDBID, &item.Title, &contentType, &item.Poster, &item.Background,
		&item.Description, &item.Year, &item.Rating, &genres, &item.Runtime, &item.Channel, &item.SourceURL, &videos); err != nil {
		return models.Content{}, err
	}
	item.Type = models.ContentType(contentType)
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &item.Genres); err != nil {
			return models.Content{}, fmt.Errorf("decode genres for %s: %w", item.ID, err)
		}
	}
	if videos != "" {
		if err := json.Unmarshal([]byte(videos), &item.Videos); err != nil {
			return models.Content{}, fmt.Errorf("decode videos for %s: %w", item.ID, err)
		}
	}
	if len(item.Videos) == 0 {
		item.Videos = nil
	}
	return item, nil
}

func (s *SQLStore) queryContent(ctx context.Context, query string, args ...any) ([]models.Content, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	out := make([]models.Content, 0)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, contentType models.ContentType) ([]models.Content, error) {
	if contentType == "" {
		return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content ORDER BY position, id`)
	}
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content WHERE content_type=$1 ORDER BY position, id`, string(contentType))
}

func (s *SQLStore) Get(ctx context.Context, id string) (*models.Content, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id=$1 OR imdb_id=$1 ORDER BY position LIMIT 1`, id)
	item, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", id, err)
	}
	return &item, nil
}

// Search folds titles in Go; SQL collations cannot strip diacritics portably.
func (s *SQLStore) Search(ctx context.Context, query string) ([]models.Content, error) {
	all, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return searchFilter(all, query), nil
}

func (s *SQLStore) TorrentsFor(ctx context.Context, contentID string) ([]models.Torrent, error) {
	out := make([]models.Torrent, 0)
	if contentID == "" {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+torrentColumns+` FROM torrents WHERE content_id=$1 ORDER BY position, id`, contentID)
	if err != nil {
		return nil, fmt.Errorf("query torrents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t       models.Torrent
			quality string
		)
		if err := rows.Scan(&t.ID, &t.ContentID, &t.InfoHash, &t.Title, &t.Size, &t.SizeReadable, &quality,
			&t.Seeders, &t.Leechers, &t.Source, &t.Magnet); err != nil {
			return nil, fmt.Errorf("scan torrent: %w", err)
		}
		t.Quality = models.Quality(quality)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdatePoster(ctx context.Context, id, posterURL string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE content SET poster=$1 WHERE id=$2 OR imdb_id=$2`, posterURL, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("update poster: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) UpsertContent(ctx context.Context, item models.Content) error {
	item, err := validateContent(item)
	if err != nil {
		return err
	}
	genres, err := json.Marshal(nonNilStrings(item.Genres))
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}
	videos, err := json.Marshal(nonNilVideos(item.Videos))
	if err != nil {
		return fmt.Errorf("encode videos: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO content (`+contentColumns+`, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, (SELECT COALESCE(MAX(position), 0) + 1 FROM content))
ON CONFLICT (id) DO UPDATE
SET imdb_id=excluded.imdb_id, title=excluded.title, content_type=excluded.content_type, poster=excluded.poster,
    background=excluded.background, description=excluded.description, year=excluded.year, rating=excluded.rating,
    genres=excluded.genres, runtime=excluded.runtime, channel=excluded.channel, source_url=excluded.source_url,
    videos=excluded.videos`,
		item.ID, item.IMDBID, item.Title, string(item.Type), item.Poster, item.Background, item.Description,
		item.Year, item.Rating, string(genres), item.Runtime, item.Channel, item.SourceURL, string(videos))
	if err != nil {
		return fmt.Errorf("upsert content %s: %w", item.ID, err)
	}
	return nil
}

func (s *SQLStore) AddTorrent(ctx context.Context, t models.Torrent) (bool, error) {
	t, err := validateTorrent(t)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO torrents (`+torrentColumns+`, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, (SELECT COALESCE(MAX(position), 0) + 1 FROM torrents))
ON CONFLICT DO NOTHING`,
		t.ID, t.ContentID, t.InfoHash, t.Title, t.Size, t.SizeReadable, string(t.Quality),
		t.Seeders, t.Leechers, t.Source, t.Magnet)
	if err != nil {
		return false, fmt.Errorf("insert torrent %s: %w", t.InfoHash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert torrent %s: %w", t.InfoHash, err)
	}
	return n > 0, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilVideos(values []models.Video) []models.Video {
	if values == nil {
		return []models.Video{}
	}
	return values
}
