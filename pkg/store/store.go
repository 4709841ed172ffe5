// Package store persists episode trajectories to SQLite so runs can be
// inspected and replayed after the fact.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           TEXT PRIMARY KEY,
	profile      TEXT NOT NULL,
	start_x      REAL NOT NULL,
	start_y      REAL NOT NULL,
	goal_x       REAL NOT NULL,
	goal_y       REAL NOT NULL,
	steps        INTEGER NOT NULL,
	total_reward REAL NOT NULL,
	reason       TEXT NOT NULL,
	terminated   INTEGER NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	episode_id TEXT NOT NULL REFERENCES episodes(id),
	seq        INTEGER NOT NULL,
	action     TEXT NOT NULL,
	linear     REAL NOT NULL,
	angular    REAL NOT NULL,
	reward     REAL NOT NULL,
	distance   REAL NOT NULL,
	colliding  INTEGER NOT NULL,
	terminated INTEGER NOT NULL,
	PRIMARY KEY (episode_id, seq)
);
`

// EpisodeRecord is one stored episode summary.
type EpisodeRecord struct {
	ID          string
	Profile     string
	StartX      float64
	StartY      float64
	GoalX       float64
	GoalY       float64
	Steps       int
	TotalReward float64
	Reason      string
	Terminated  bool
	CreatedAt   time.Time
}

// StepRecord is one stored transition.
type StepRecord struct {
	Seq        int
	Action     string // e.g. "discrete:0" or "continuous:0.50,-0.20"
	Linear     float64
	Angular    float64
	Reward     float64
	Distance   float64
	Colliding  bool
	Terminated bool
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the trajectory database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveEpisode writes an episode and its steps in one transaction.
func (s *Store) SaveEpisode(ep EpisodeRecord, steps []StepRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO episodes (id, profile, start_x, start_y, goal_x, goal_y, steps, total_reward, reason, terminated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ID, ep.Profile, ep.StartX, ep.StartY, ep.GoalX, ep.GoalY,
		ep.Steps, ep.TotalReward, ep.Reason, ep.Terminated, ep.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert episode %s: %w", ep.ID, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO steps (episode_id, seq, action, linear, angular, reward, distance, colliding, terminated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range steps {
		if _, err := stmt.Exec(ep.ID, st.Seq, st.Action, st.Linear, st.Angular,
			st.Reward, st.Distance, st.Colliding, st.Terminated); err != nil {
			return fmt.Errorf("insert step %d of %s: %w", st.Seq, ep.ID, err)
		}
	}

	return tx.Commit()
}

// ListEpisodes returns stored episodes, newest first.
func (s *Store) ListEpisodes(limit int) ([]EpisodeRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, profile, start_x, start_y, goal_x, goal_y, steps, total_reward, reason, terminated, created_at
		 FROM episodes ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeRecord
	for rows.Next() {
		var ep EpisodeRecord
		if err := rows.Scan(&ep.ID, &ep.Profile, &ep.StartX, &ep.StartY, &ep.GoalX, &ep.GoalY,
			&ep.Steps, &ep.TotalReward, &ep.Reason, &ep.Terminated, &ep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// EpisodeSteps returns the stored transitions of one episode in order.
func (s *Store) EpisodeSteps(episodeID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT seq, action, linear, angular, reward, distance, colliding, terminated
		 FROM steps WHERE episode_id = ? ORDER BY seq`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.Seq, &st.Action, &st.Linear, &st.Angular,
			&st.Reward, &st.Distance, &st.Colliding, &st.Terminated); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
