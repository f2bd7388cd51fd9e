package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sonnes/lekhak/core"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	session   TEXT NOT NULL,
	question  TEXT NOT NULL,
	answer    TEXT NOT NULL,
	at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_session ON turns(session, id);
`

// SQLite keeps turns in a single table keyed by session.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Append(ctx context.Context, session string, turn core.ChatTurn) error {
	// Zero time is stored as 0; its UnixNano is outside int64.
	var at int64
	if !turn.At.IsZero() {
		at = turn.At.UnixNano()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session, question, answer, at) VALUES (?, ?, ?, ?)`,
		session, turn.Question, turn.Answer, at)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, session string) ([]core.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, answer, at
		FROM turns
		WHERE session = ?
		ORDER BY id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := []core.ChatTurn{}
	for rows.Next() {
		var t core.ChatTurn
		var at int64
		if err := rows.Scan(&t.Question, &t.Answer, &at); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if at != 0 {
			t.At = time.Unix(0, at).UTC()
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLite) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session = ?`, session); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
