// Package storage keeps a local SQLite history of warranty analyses.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding past analysis results.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "snapregister.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// SaveAnalysis inserts the record and returns its ID. When rec.ID is empty a
// new one is generated.
func (s *Store) SaveAnalysis(rec AnalysisRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO analyses (id, created_at, brand, model, serial_number, purchase_date,
			warranty_period, warranty_end_date, retailer, price, confidence,
			additional_info, extracted_at, user_id, uploaded_slots)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339), rec.Brand, rec.Model,
		rec.SerialNumber, rec.PurchaseDate, rec.WarrantyPeriod, rec.WarrantyEndDate,
		rec.Retailer, rec.Price, rec.Confidence, rec.AdditionalInfo, rec.ExtractedAt,
		rec.UserID, rec.UploadedSlots,
	)
	if err != nil {
		return "", fmt.Errorf("saving analysis: %w", err)
	}
	return rec.ID, nil
}

const analysisColumns = `id, created_at, brand, model, serial_number, purchase_date,
	warranty_period, warranty_end_date, retailer, price, confidence,
	additional_info, extracted_at, user_id, uploaded_slots`

func scanAnalysis(row interface{ Scan(...any) error }) (AnalysisRecord, error) {
	var rec AnalysisRecord
	var createdAt string
	err := row.Scan(&rec.ID, &createdAt, &rec.Brand, &rec.Model, &rec.SerialNumber,
		&rec.PurchaseDate, &rec.WarrantyPeriod, &rec.WarrantyEndDate, &rec.Retailer,
		&rec.Price, &rec.Confidence, &rec.AdditionalInfo, &rec.ExtractedAt,
		&rec.UserID, &rec.UploadedSlots)
	if err != nil {
		return AnalysisRecord{}, err
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("corrupt created_at for %s: %w", rec.ID, err)
	}
	return rec, nil
}

// GetAnalysis returns a single record by ID, or ErrNotFound.
func (s *Store) GetAnalysis(id string) (AnalysisRecord, error) {
	row := s.db.QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	rec, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return AnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	return rec, nil
}

// ListAnalyses returns the most recent records, newest first. limit <= 0
// means no limit.
func (s *Store) ListAnalyses(limit int) ([]AnalysisRecord, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes a record. Deleting a missing ID returns ErrNotFound.
func (s *Store) DeleteAnalysis(id string) error {
	res, err := s.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting analysis %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
