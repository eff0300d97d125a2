package breachdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/identscan/internal/model"
)

// DB is the breach corpus store.
type DB struct {
	db   *sql.DB
	path string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the file and its directory when missing.
	// Lookups open the corpus without it so a missing corpus is an error
	// instead of an empty database.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns options for a writable, WAL-backed corpus.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// Open opens the corpus at path.
func Open(path string, opts Options) (*DB, error) {
	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create corpus directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("breach corpus not found at %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("open breach corpus: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	bdb := &DB{db: db, path: path}
	if err := bdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return bdb, nil
}

// Close closes the database.
func (b *DB) Close() error {
	return b.db.Close()
}

// Path returns the database file path.
func (b *DB) Path() string {
	return b.path
}

func (b *DB) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS breaches (
		name TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		breach_date TEXT NOT NULL DEFAULT '',
		data_classes TEXT NOT NULL DEFAULT '[]',
		pwn_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exposures (
		email TEXT NOT NULL,
		breach_name TEXT NOT NULL REFERENCES breaches(name) ON DELETE CASCADE,
		PRIMARY KEY (email, breach_name)
	);

	CREATE INDEX IF NOT EXISTS idx_exposures_email ON exposures(email);
	`
	_, err := b.db.ExecContext(ctx, schema)
	return err
}

// ImportStats summarizes an Import.
type ImportStats struct {
	Breaches  int
	Exposures int
}

// Import upserts the corpus breaches and exposures in one transaction.
func (b *DB) Import(ctx context.Context, c *Corpus) (ImportStats, error) {
	if err := c.Validate(); err != nil {
		return ImportStats{}, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stats ImportStats
	for _, br := range c.Breaches {
		classes, err := json.Marshal(br.DataClasses)
		if err != nil {
			return ImportStats{}, fmt.Errorf("encode data classes of %s: %w", br.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO breaches (name, title, domain, breach_date, data_classes, pwn_count)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				title = excluded.title,
				domain = excluded.domain,
				breach_date = excluded.breach_date,
				data_classes = excluded.data_classes,
				pwn_count = excluded.pwn_count`,
			br.Name, br.Title, br.Domain, br.BreachDate, string(classes), br.PwnCount)
		if err != nil {
			return ImportStats{}, fmt.Errorf("insert breach %s: %w", br.Name, err)
		}
		stats.Breaches++
	}

	for _, acct := range c.Accounts {
		email := normalizeEmail(acct.Email)
		for _, name := range acct.Breaches {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO exposures (email, breach_name) VALUES (?, ?)`, email, name)
			if err != nil {
				return ImportStats{}, fmt.Errorf("insert exposure %s/%s: %w", email, name, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				stats.Exposures += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

// LookupBreaches returns the breaches an address appears in, newest first.
// It satisfies probe.BreachLookup.
func (b *DB) LookupBreaches(ctx context.Context, email string) ([]model.Breach, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT b.name, b.title, b.domain, b.breach_date, b.data_classes, b.pwn_count
		FROM exposures e
		JOIN breaches b ON b.name = e.breach_name
		WHERE e.email = ?
		ORDER BY b.breach_date DESC, b.name ASC`, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("query breaches: %w", err)
	}
	defer rows.Close()

	breaches := make([]model.Breach, 0)
	for rows.Next() {
		var (
			br      model.Breach
			classes string
		)
		if err := rows.Scan(&br.Name, &br.Title, &br.Domain, &br.BreachDate, &classes, &br.PwnCount); err != nil {
			return nil, fmt.Errorf("scan breach: %w", err)
		}
		if err := json.Unmarshal([]byte(classes), &br.DataClasses); err != nil {
			return nil, fmt.Errorf("decode data classes of %s: %w", br.Name, err)
		}
		breaches = append(breaches, br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breaches: %w", err)
	}
	return breaches, nil
}

// Stats counts the stored breaches and distinct exposed addresses.
func (b *DB) Stats(ctx context.Context) (breaches, accounts int, err error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM breaches), (SELECT COUNT(DISTINCT email) FROM exposures)`)
	if err := row.Scan(&breaches, &accounts); err != nil {
		return 0, 0, fmt.Errorf("count corpus: %w", err)
	}
	return breaches, accounts, nil
}
