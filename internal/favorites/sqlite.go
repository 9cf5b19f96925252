package favorites

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// SQLiteStore keeps favorites in a local SQLite file. The schema comes from the embedded migrations in shared.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a migrated database opened with [shared.NewDatabase].
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Add(ctx context.Context, t models.Track) error {
	if err := validate(t); err != nil {
		return err
	}

	artists, err := encodeArtists(t.ArtistInfo)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	query := `
		INSERT INTO favorites (id, track_id, provider, title, artists, image_url, track_url, album_type, duration_ms, uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (track_id, provider) DO UPDATE
		SET title = excluded.title, artists = excluded.artists, image_url = excluded.image_url,
		    track_url = excluded.track_url, album_type = excluded.album_type,
		    duration_ms = excluded.duration_ms, uri = excluded.uri
	`

	_, err = s.db.ExecContext(ctx, query,
		shared.GenerateID(),
		t.ID,
		t.Provider.String(),
		t.Title,
		string(artists),
		t.ImageURL,
		t.TrackURL,
		t.AlbumType,
		t.Duration,
		t.URI,
	)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, trackID string, p models.Provider) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE track_id = ? AND provider = ?`, trackID, p.String())
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFavorited
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, p models.Provider) ([]models.Track, error) {
	query := `
		SELECT track_id, title, artists, image_url, track_url, album_type, duration_ms, uri
		FROM favorites
		WHERE provider = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query, p.String())
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
