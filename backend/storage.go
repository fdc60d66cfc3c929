package backend

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

type passphraseModel struct {
	bun.BaseModel `bun:"table:passphrases"`

	ID          int64     `bun:"id,pk,autoincrement"`
	LicenseID   string    `bun:"license_id,notnull"`
	Provider    string    `bun:"provider"`
	UserKeyHash string    `bun:"user_key_hash,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// PassphraseStore keeps user key hashes in sqlite so a license unlocked once
// does not prompt again
type PassphraseStore struct {
	db *bun.DB
}

// OpenPassphraseStore opens (creating if needed) the sqlite database at dsn
func OpenPassphraseStore(ctx context.Context, dsn string) (*PassphraseStore, error) {
	if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	sqldb.SetMaxOpenConns(1)

	s := &PassphraseStore{db: bun.NewDB(sqldb, sqlitedialect.New())}
	if err := s.migrate(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PassphraseStore) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*passphraseModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create passphrases table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*passphraseModel)(nil)).
		Index("passphrases_license_key_idx").
		Unique().
		Column("license_id", "user_key_hash").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create passphrases index: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*passphraseModel)(nil)).
		Index("passphrases_provider_idx").
		Column("provider").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create provider index: %w", err)
	}
	return nil
}

// Add records a user key hash; adding the same hash twice is a no-op
func (s *PassphraseStore) Add(ctx context.Context, licenseID, provider, userKeyHash string) error {
	m := &passphraseModel{
		LicenseID:   licenseID,
		Provider:    provider,
		UserKeyHash: userKeyHash,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (license_id, user_key_hash) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to store passphrase: %w", err)
	}
	return nil
}

// ForLicense returns the hashes stored for a license, newest first
func (s *PassphraseStore) ForLicense(ctx context.Context, licenseID string) ([]string, error) {
	return s.hashes(ctx, "license_id = ?", licenseID)
}

// ForProvider returns the hashes stored for any license of a provider,
// newest first. Providers often reuse one passphrase per user.
func (s *PassphraseStore) ForProvider(ctx context.Context, provider string) ([]string, error) {
	if provider == "" {
		return nil, nil
	}
	return s.hashes(ctx, "provider = ?", provider)
}

func (s *PassphraseStore) hashes(ctx context.Context, where string, arg string) ([]string, error) {
	var rows []passphraseModel
	if err := s.db.NewSelect().
		Model(&rows).
		Column("user_key_hash").
		Where(where, arg).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query passphrases: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	hashes := make([]string, 0, len(rows))
	for _, r := range rows {
		if seen[r.UserKeyHash] {
			continue
		}
		seen[r.UserKeyHash] = true
		hashes = append(hashes, r.UserKeyHash)
	}
	return hashes, nil
}

// Forget deletes every hash stored for a license and returns how many went
func (s *PassphraseStore) Forget(ctx context.Context, licenseID string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*passphraseModel)(nil)).
		Where("license_id = ?", licenseID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to forget passphrases: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database
func (s *PassphraseStore) Close() error {
	return s.db.Close()
}
