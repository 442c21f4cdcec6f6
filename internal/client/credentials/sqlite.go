package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/eventsplatform/internal/client/repositories/sessionkv"
	"github.com/dmitrijs2005/eventsplatform/internal/dbx"
)

// SQLiteStore persists the credential in the local session database.
// Multi-key writes run in one transaction.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore expects db to be opened and migrated by storage.Open.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) write(ctx context.Context, values map[string]string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessionkv.NewSQLiteRepository(tx)
		for k, v := range values {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Set(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, map[string]string{KeyAccessToken: access, KeyRefreshToken: refresh}); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetRole(ctx context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sessionkv.NewSQLiteRepository(s.db).Set(ctx, KeyRole, string(role)); err != nil {
		return fmt.Errorf("store role: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Establish(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, toMap(c)); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sessionkv.NewSQLiteRepository(s.db).Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyRole)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := sessionkv.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("read session: %w", err)
	}
	return fromMap(m), nil
}
