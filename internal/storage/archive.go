package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Archive keeps the memories compression removes from a world, so long-term history
// survives the in-world caps. Rows are keyed by world and NPC.
type Archive struct {
	db *sql.DB
}

// ArchivedMemory is one archived entry.
type ArchivedMemory struct {
	ID         string       `json:"id"`
	WorldID    uuid.UUID    `json:"world_id"`
	NPC        string       `json:"npc"`
	ArchivedAt clock.Tick   `json:"archived_at"` // game time of the compression pass
	StoredAt   time.Time    `json:"stored_at"`
	Entry      memory.Entry `json:"entry"`
}

// OpenArchive opens or creates the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	_, err := a.db.Exec(`
	CREATE TABLE IF NOT EXISTS archived_memories (
		id          TEXT PRIMARY KEY,
		world_id    TEXT NOT NULL,
		npc         TEXT NOT NULL,
		memory_id   TEXT NOT NULL,
		summary     TEXT NOT NULL,
		archived_at INTEGER NOT NULL,
		stored_at   TEXT NOT NULL,
		entry       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archived_world_npc ON archived_memories(world_id, npc, archived_at DESC);
	`)
	return err
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put archives entries removed from an NPC's memory at game time at.
func (a *Archive) Put(ctx context.Context, worldID uuid.UUID, npc string, at clock.Tick, entries []memory.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO archived_memories
		(id, world_id, npc, memory_id, summary, archived_at, stored_at, entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare archive: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal memory %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, ulid.Make().String(), worldID.String(), npc, e.ID,
			e.Summary, int64(at), now.Format(time.RFC3339Nano), string(data)); err != nil {
			return fmt.Errorf("archive memory %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// List returns an NPC's archived memories, most recently archived first. An empty npc
// lists the whole world. limit <= 0 means no limit.
func (a *Archive) List(ctx context.Context, worldID uuid.UUID, npc string, limit int) ([]ArchivedMemory, error) {
	query := `SELECT id, npc, archived_at, stored_at, entry FROM archived_memories WHERE world_id = ?`
	args := []any{worldID.String()}
	if npc != "" {
		query += ` AND npc = ?`
		args = append(args, npc)
	}
	query += ` ORDER BY archived_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedMemory
	for rows.Next() {
		var (
			m        ArchivedMemory
			at       int64
			storedAt string
			entry    string
		)
		if err := rows.Scan(&m.ID, &m.NPC, &at, &storedAt, &entry); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		if err := json.Unmarshal([]byte(entry), &m.Entry); err != nil {
			return nil, fmt.Errorf("decode archived memory %s: %w", m.ID, err)
		}
		m.WorldID = worldID
		m.ArchivedAt = clock.Tick(at)
		m.StoredAt, _ = time.Parse(time.RFC3339Nano, storedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteWorld drops every archived memory of a world.
func (a *Archive) DeleteWorld(ctx context.Context, worldID uuid.UUID) (int64, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM archived_memories WHERE world_id = ?`, worldID.String())
	if err != nil {
		return 0, fmt.Errorf("delete archive: %w", err)
	}
	return res.RowsAffected()
}

// For binds the archive to one world so a running simulation can write to it.
func (a *Archive) For(ctx context.Context, worldID uuid.UUID) sim.Archiver {
	return &worldArchive{ctx: ctx, archive: a, worldID: worldID}
}

type worldArchive struct {
	ctx     context.Context
	archive *Archive
	worldID uuid.UUID
}

func (w *worldArchive) ArchiveMemories(npc string, at clock.Tick, entries []memory.Entry) error {
	return w.archive.Put(w.ctx, w.worldID, npc, at, entries)
}
