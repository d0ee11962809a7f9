package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	AppID     string                 `json:"app_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// TrackedEvent is one analytics event recorded by a TRACK_EVENT action.
type TrackedEvent struct {
	ID         int64                  `json:"id"`
	Timestamp  time.Time              `json:"ts"`
	SessionID  string                 `json:"session_id"`
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Client manages the Postgres connection for event and analytics storage.
type Client struct {
	db    *sql.DB
	appID string

	mu          sync.Mutex
	errorLogged bool
}

// New creates a new Postgres client using environment variables.
// Returns an error if the database is unreachable (caller should degrade gracefully).
func New(appID string, password string) (*Client, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "sdui")
	dbname := getEnv("PGDATABASE", "sdui")

	var connStr string
	if password != "" {
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	} else {
		connStr = fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
			host, port, user, dbname)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := NewWithDB(db, appID)
	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

// NewWithDB wraps an already opened database. Tables are not created.
func NewWithDB(db *sql.DB, appID string) *Client {
	return &Client{
		db:    db,
		appID: appID,
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			app_id     TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_app_id ON events(app_id);

		CREATE TABLE IF NOT EXISTS tracked_events (
			id         BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			app_id     TEXT NOT NULL,
			session_id TEXT NOT NULL,
			event      TEXT NOT NULL,
			properties JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_tracked_events_event ON tracked_events(app_id, event);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event into the database.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	var sessionPtr *string
	if sessionID != "" {
		sessionPtr = &sessionID
	}

	query := `
		INSERT INTO events (ts, level, event, msg, fields, app_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.appID, sessionPtr)
	return err
}

// Query returns the last N events from the database in descending order by timestamp.
func (c *Client) Query(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 10000 {
		limit = 10000
	}

	query := `
		SELECT event_id, ts, level, event, msg, fields, app_id, session_id
		FROM events
		WHERE app_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.appID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.AppID, &sessionID); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// Track records an analytics event. It satisfies the effects analytics sink.
func (c *Client) Track(ctx context.Context, sessionID, event string, properties map[string]interface{}) error {
	var propsJSON []byte
	if properties != nil {
		b, err := json.Marshal(properties)
		if err != nil {
			return fmt.Errorf("failed to marshal properties: %w", err)
		}
		propsJSON = b
	}

	query := `
		INSERT INTO tracked_events (ts, app_id, session_id, event, properties)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, query, time.Now().UTC(), c.appID, sessionID, event, propsJSON)
	if err != nil {
		return fmt.Errorf("track %s: %w", event, err)
	}
	return nil
}

// QueryTracked returns the most recent tracked events with the given name.
func (c *Client) QueryTracked(ctx context.Context, event string, limit int) ([]TrackedEvent, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, ts, session_id, event, properties
		FROM tracked_events
		WHERE app_id = $1 AND event = $2
		ORDER BY ts DESC
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, query, c.appID, event, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackedEvent
	for rows.Next() {
		var te TrackedEvent
		var propsJSON []byte
		if err := rows.Scan(&te.ID, &te.Timestamp, &te.SessionID, &te.Event, &propsJSON); err != nil {
			return nil, err
		}
		if len(propsJSON) > 0 {
			if err := json.Unmarshal(propsJSON, &te.Properties); err != nil {
				return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
			}
		}
		out = append(out, te)
	}
	return out, rows.Err()
}

// Ping reports whether the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// MarkErrorLogged marks that an error has been logged (to avoid spam).
func (c *Client) MarkErrorLogged() {
	c.mu.Lock()
	c.errorLogged = true
	c.mu.Unlock()
}

// HasLoggedError returns true if an error has been logged.
func (c *Client) HasLoggedError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorLogged
}
