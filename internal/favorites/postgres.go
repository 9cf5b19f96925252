package favorites

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/desertthunder/mixdeck/internal/models"
)

// DB is the subset of [*pgxpool.Pool] used by [PostgresStore]; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps favorites in a Postgres table.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AutoMigrate creates the favorites table when it does not exist.
func AutoMigrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS favorites (
          id          uuid NOT NULL DEFAULT gen_random_uuid(),
          track_id    TEXT NOT NULL,
          provider    TEXT NOT NULL,
          title       TEXT NOT NULL DEFAULT '',
          artists     JSONB NOT NULL DEFAULT '[]',
          image_url   TEXT NOT NULL DEFAULT '',
          track_url   TEXT NOT NULL DEFAULT '',
          album_type  TEXT NOT NULL DEFAULT '',
          duration_ms BIGINT NOT NULL DEFAULT 0,
          uri         TEXT NOT NULL DEFAULT '',
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (track_id, provider)
      )
    `); err != nil {
		return fmt.Errorf("failed to create favorites table: %w", err)
	}

	if _, err := db.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_favorites_provider ON favorites (provider, created_at DESC)`); err != nil {
		return fmt.Errorf("failed to create favorites index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, t models.Track) error {
	if err := validate(t); err != nil {
		return err
	}

	artists, err := encodeArtists(t.ArtistInfo)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO favorites (track_id, provider, title, artists, image_url, track_url, album_type, duration_ms, uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (track_id, provider) DO UPDATE
		SET title = EXCLUDED.title, artists = EXCLUDED.artists, image_url = EXCLUDED.image_url,
		    track_url = EXCLUDED.track_url, album_type = EXCLUDED.album_type,
		    duration_ms = EXCLUDED.duration_ms, uri = EXCLUDED.uri
	`, t.ID, t.Provider.String(), t.Title, artists, t.ImageURL, t.TrackURL, t.AlbumType, t.Duration, t.URI)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, trackID string, p models.Provider) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM favorites WHERE track_id = $1 AND provider = $2`, trackID, p.String())
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFavorited
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, p models.Provider) ([]models.Track, error) {
	rows, err := s.db.Query(ctx, `
		SELECT track_id, title, artists, image_url, track_url, album_type, duration_ms, uri
		FROM favorites
		WHERE provider = $1
		ORDER BY created_at DESC, track_id
	`, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		t, err := scanTrack(rows, p)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return tracks, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
