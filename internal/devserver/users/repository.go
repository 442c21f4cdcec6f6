package users

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// MemoryRepository keeps users in a map keyed by lower-cased email.
// Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(user.Email)
	if _, ok := r.users[k]; ok {
		return nil, ErrAlreadyExists
	}
	r.users[k] = *user

	u := *user
	return &u, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[key(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(user.Email)
	if _, ok := r.users[k]; !ok {
		return ErrNotFound
	}
	r.users[k] = *user
	return nil
}
