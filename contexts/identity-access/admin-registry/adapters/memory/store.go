package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian/contexts/identity-access/admin-registry/domain/entities"
	domainerrors "meridian/contexts/identity-access/admin-registry/domain/errors"
)

// Store is an in-memory administrator registry seeded with a root
// administrator so a fresh process is never locked out of privileged
// operations.
type Store struct {
	mu     sync.RWMutex
	admins map[string]entities.Administrator
}

func NewStore(rootAdminID string) *Store {
	admins := make(map[string]entities.Administrator)
	rootAdminID = strings.TrimSpace(rootAdminID)
	if rootAdminID != "" {
		admins[rootAdminID] = entities.Administrator{
			UserID:    rootAdminID,
			GrantedBy: rootAdminID,
			Reason:    "root administrator",
			GrantedAt: time.Now().UTC(),
		}
	}
	return &Store{admins: admins}
}

func (s *Store) GetAdministrator(_ context.Context, userID string) (entities.Administrator, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[strings.TrimSpace(userID)]
	return admin, ok, nil
}

func (s *Store) PutAdministrator(_ context.Context, admin entities.Administrator) error {
	if strings.TrimSpace(admin.UserID) == "" {
		return domainerrors.ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[strings.TrimSpace(admin.UserID)] = admin
	return nil
}

func (s *Store) DeleteAdministrator(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(userID)
	if _, ok := s.admins[key]; !ok {
		return domainerrors.ErrAdministratorNotFound
	}
	delete(s.admins, key)
	return nil
}

func (s *Store) ListAdministrators(_ context.Context) ([]entities.Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Administrator, 0, len(s.admins))
	for _, admin := range s.admins {
		items = append(items, admin)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) CountAdministrators(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
