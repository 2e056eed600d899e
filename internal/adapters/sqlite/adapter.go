// Package sqlite persists the provider credential and the annotation cache in
// a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// credentialRowID pins the single stored credential.
const credentialRowID = 1

// Adapter implements the credential store and annotation cache ports.
type Adapter struct {
	db *sqlx.DB
}

var (
	_ ports.CredentialStore = (*Adapter)(nil)
	_ ports.AnnotationCache = (*Adapter)(nil)
)

type analysisRow struct {
	Title    string `db:"title"`
	Summary  string `db:"summary"`
	Mood     string `db:"mood"`
	ColorHex string `db:"color_hex"`
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sqlx.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if strings.Contains(storagePath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// LoadCredential returns domain.ErrNotFound when nobody has signed in.
func (a *Adapter) LoadCredential(ctx context.Context) (domain.Credential, error) {
	var cred domain.Credential
	err := a.db.GetContext(ctx, &cred, `
		SELECT access_token, refresh_token, token_type, expiry
		FROM credentials WHERE id = ?
	`, credentialRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Credential{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}
	return cred, nil
}

// SaveCredential replaces the stored credential.
func (a *Adapter) SaveCredential(ctx context.Context, cred domain.Credential) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO credentials (id, access_token, refresh_token, token_type, expiry)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			token_type=excluded.token_type,
			expiry=excluded.expiry;
	`, credentialRowID, cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.Expiry.UTC())
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// ClearCredential removes the stored credential; clearing twice is fine.
func (a *Adapter) ClearCredential(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ?", credentialRowID); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// GetAnalysis returns domain.ErrNotFound on a cache miss.
func (a *Adapter) GetAnalysis(ctx context.Context, key string) (domain.Analysis, error) {
	var row analysisRow
	err := a.db.GetContext(ctx, &row, `
		SELECT title, summary, mood, color_hex FROM analyses WHERE cache_key = ?
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Analysis{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("failed to load analysis: %w", err)
	}

	out := domain.Analysis{Title: row.Title, Summary: row.Summary, ColorHex: row.ColorHex}
	if row.Mood != "" {
		if err := json.Unmarshal([]byte(row.Mood), &out.Mood); err != nil {
			return domain.Analysis{}, fmt.Errorf("failed to decode mood tags: %w", err)
		}
	}
	return out, nil
}

// SaveAnalysis upserts an annotation under key.
func (a *Adapter) SaveAnalysis(ctx context.Context, key string, an domain.Analysis) error {
	mood, err := json.Marshal(an.Mood)
	if err != nil {
		return fmt.Errorf("failed to encode mood tags: %w", err)
	}
	_, err = a.db.NamedExecContext(ctx, `
		INSERT INTO analyses (cache_key, title, summary, mood, color_hex)
		VALUES (:cache_key, :title, :summary, :mood, :color_hex)
		ON CONFLICT(cache_key) DO UPDATE SET
			title=excluded.title,
			summary=excluded.summary,
			mood=excluded.mood,
			color_hex=excluded.color_hex;
	`, map[string]any{
		"cache_key": key,
		"title":     an.Title,
		"summary":   an.Summary,
		"mood":      string(mood),
		"color_hex": an.ColorHex,
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		token_type TEXT NOT NULL DEFAULT '',
		expiry DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS analyses (
		cache_key TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		mood TEXT NOT NULL DEFAULT '[]',
		color_hex TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := a.db.Exec(query)
	return err
}

