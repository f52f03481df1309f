package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no snapshot exists for an asset and clip name.
	ErrNotFound = errors.New("store: clip not found")

	// ErrCorrupt is returned when a stored snapshot no longer decodes into a valid clip.
	ErrCorrupt = errors.New("store: corrupt clip snapshot")
)

// ClipInfo describes one stored snapshot without decoding its tracks.
type ClipInfo struct {
	Asset     string    `json:"asset" yaml:"asset"`
	Clip      string    `json:"clip" yaml:"clip"`
	Revision  int64     `json:"revision" yaml:"revision"`
	Tracks    int       `json:"tracks" yaml:"tracks"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// trackRecord is the JSON form of a model.Track inside the tracks_json column.
type trackRecord struct {
	Bone   string    `json:"bone"`
	Kind   string    `json:"kind"`
	Times  []float32 `json:"times"`
	Values []float32 `json:"values"`
}

// clipRecord is the JSON document stored per clip.
type clipRecord struct {
	Duration float32       `json:"duration"`
	Tracks   []trackRecord `json:"tracks"`
}

// store is the implementation of the Store interface.
type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Store keeps the latest edited version of each animation clip in a sqlite database, one row per
// (asset, clip). Saving a clip again replaces the row and bumps its revision.
type Store interface {
	// SaveClip writes a snapshot of clip under the asset name.
	//
	// Parameters:
	//   - ctx: bounds the write
	//   - asset: the asset the clip belongs to
	//   - clip: the clip to snapshot
	//
	// Returns:
	//   - int64: the new revision, 1 for the first save
	//   - error: error if the clip is nil or the write fails
	SaveClip(ctx context.Context, asset string, clip *model.AnimationClip) (int64, error)

	// LoadClip reads back the latest snapshot of a clip.
	//
	// Parameters:
	//   - ctx: bounds the read
	//   - asset: the asset name
	//   - name: the clip name
	//
	// Returns:
	//   - *model.AnimationClip: the stored clip
	//   - int64: its revision
	//   - error: wraps ErrNotFound when absent, ErrCorrupt when it no longer decodes
	LoadClip(ctx context.Context, asset, name string) (*model.AnimationClip, int64, error)

	// ListClips lists the snapshots stored for an asset, by clip name. An empty asset lists every row.
	//
	// Parameters:
	//   - ctx: bounds the read
	//   - asset: the asset name, or "" for all assets
	//
	// Returns:
	//   - []ClipInfo: the stored snapshots
	//   - error: error if the query fails
	ListClips(ctx context.Context, asset string) ([]ClipInfo, error)

	// DeleteClip removes a snapshot. Deleting a missing clip wraps ErrNotFound.
	//
	// Parameters:
	//   - ctx: bounds the write
	//   - asset: the asset name
	//   - name: the clip name
	//
	// Returns:
	//   - error: error if the delete fails
	DeleteClip(ctx context.Context, asset, name string) error

	// Close releases the database handle.
	Close() error
}

var _ Store = &store{}

// Open opens (creating if needed) the sqlite database at path and migrates its schema.
//
// Parameters:
//   - ctx: bounds the setup statements
//   - path: the database file path
//   - options: a variadic list of StoreBuilderOption functions
//
// Returns:
//   - Store: the opened store
//   - error: error if the database cannot be opened or migrated
func Open(ctx context.Context, path string, options ...StoreBuilderOption) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &store{db: db, logger: slog.Default()}
	for _, option := range options {
		option(s)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clips (
			asset TEXT NOT NULL,
			clip TEXT NOT NULL,
			revision INTEGER NOT NULL,
			track_count INTEGER NOT NULL,
			tracks_json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(asset, clip)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *store) SaveClip(ctx context.Context, asset string, clip *model.AnimationClip) (int64, error) {
	if clip == nil {
		return 0, errors.New("store: nil clip")
	}
	payload, err := json.Marshal(encodeClip(clip))
	if err != nil {
		return 0, fmt.Errorf("encode clip %q: %w", clip.Name(), err)
	}

	var revision int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO clips(asset, clip, revision, track_count, tracks_json, updated_at_unixms)
		VALUES(?, ?, 1, ?, ?, ?)
		ON CONFLICT(asset, clip) DO UPDATE SET
			revision = clips.revision + 1,
			track_count = excluded.track_count,
			tracks_json = excluded.tracks_json,
			updated_at_unixms = excluded.updated_at_unixms
		RETURNING revision;`,
		asset, clip.Name(), clip.Len(), string(payload), time.Now().UnixMilli(),
	).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("save clip %s/%s: %w", asset, clip.Name(), err)
	}

	s.logger.Debug("clip saved", "asset", asset, "clip", clip.Name(), "revision", revision)
	return revision, nil
}

func (s *store) LoadClip(ctx context.Context, asset, name string) (*model.AnimationClip, int64, error) {
	var (
		revision int64
		payload  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, tracks_json FROM clips WHERE asset = ? AND clip = ?;`,
		asset, name,
	).Scan(&revision, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: %s/%s", ErrNotFound, asset, name)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load clip %s/%s: %w", asset, name, err)
	}

	var rec clipRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, 0, fmt.Errorf("%w: %s/%s: %w", ErrCorrupt, asset, name, err)
	}
	clip, err := decodeClip(name, rec)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s/%s: %w", ErrCorrupt, asset, name, err)
	}
	return clip, revision, nil
}

func (s *store) ListClips(ctx context.Context, asset string) ([]ClipInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT asset, clip, revision, track_count, updated_at_unixms FROM clips
		WHERE ? = '' OR asset = ?
		ORDER BY asset, clip;`,
		asset, asset,
	)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var out []ClipInfo
	for rows.Next() {
		var (
			info      ClipInfo
			updatedMS int64
		)
		if err := rows.Scan(&info.Asset, &info.Clip, &info.Revision, &info.Tracks, &updatedMS); err != nil {
			return nil, fmt.Errorf("list clips: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updatedMS).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *store) DeleteClip(ctx context.Context, asset, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE asset = ? AND clip = ?;`, asset, name)
	if err != nil {
		return fmt.Errorf("delete clip %s/%s: %w", asset, name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, asset, name)
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func encodeClip(clip *model.AnimationClip) clipRecord {
	rec := clipRecord{
		Duration: clip.Duration(),
		Tracks:   make([]trackRecord, 0, clip.Len()),
	}
	for _, t := range clip.Tracks() {
		rec.Tracks = append(rec.Tracks, trackRecord{
			Bone:   t.Bone(),
			Kind:   t.Kind().Suffix(),
			Times:  t.Times(),
			Values: t.Values(),
		})
	}
	return rec
}

func decodeClip(name string, rec clipRecord) (*model.AnimationClip, error) {
	tracks := make([]model.Track, 0, len(rec.Tracks))
	for i, tr := range rec.Tracks {
		kind, ok := model.ParseChannelKind(tr.Kind)
		if !ok {
			return nil, fmt.Errorf("track %d: %w: %q", i, model.ErrInvalidChannel, tr.Kind)
		}
		track, err := model.NewTrack(tr.Bone, kind, tr.Times, tr.Values)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		tracks = append(tracks, track)
	}
	return model.NewAnimationClip(name, rec.Duration, tracks)
}
