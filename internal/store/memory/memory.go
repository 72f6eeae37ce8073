// Package memory is an in-process backend for demos and tests. It keeps
// every shop's categories, users and audit events in mutex-guarded maps
// and implements the same interfaces as the Postgres and Mongo stores.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Store is safe for concurrent use. Writes are last-write-wins, like the
// database backends.
type Store struct {
	mu         sync.RWMutex
	shops      map[uuid.UUID]models.Shop
	users      map[uuid.UUID]models.User
	categories map[uuid.UUID]map[uuid.UUID]models.Category // shop -> id -> category
	order      map[uuid.UUID][]uuid.UUID                   // shop -> ids in creation order
	events     []models.CategoryEvent
	nextEvent  int64
	now        func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		shops:      make(map[uuid.UUID]models.Shop),
		users:      make(map[uuid.UUID]models.User),
		categories: make(map[uuid.UUID]map[uuid.UUID]models.Category),
		order:      make(map[uuid.UUID][]uuid.UUID),
		now:        time.Now,
	}
}

// Snapshot returns the shop's categories in creation order.
func (s *Store) Snapshot(_ context.Context, shopID uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cats := s.categories[shopID]
	out := make([]models.Category, 0, len(cats))
	for _, id := range s.order[shopID] {
		out = append(out, cats[id].Clone())
	}
	return out, nil
}

// Create stores a new category. A zero ID is replaced with a fresh one.
func (s *Store) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := c.Clone()
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	cats := s.categories[created.ShopID]
	if cats == nil {
		cats = make(map[uuid.UUID]models.Category)
		s.categories[created.ShopID] = cats
	}
	if _, exists := cats[created.ID]; exists {
		return nil, fmt.Errorf("create category: id %s already exists", created.ID)
	}
	for _, other := range cats {
		if other.Slug == created.Slug {
			return nil, fmt.Errorf("create category: slug %q already exists", created.Slug)
		}
	}
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	cats[created.ID] = created
	s.order[created.ShopID] = append(s.order[created.ShopID], created.ID)

	out := created.Clone()
	return &out, nil
}

// Rename updates a category's name and slug. Unknown ids are ignored.
func (s *Store) Rename(_ context.Context, shopID, id uuid.UUID, name, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[shopID][id]
	if !ok {
		return nil
	}
	c.Name, c.Slug, c.UpdatedAt = name, slug, s.now()
	s.categories[shopID][id] = c
	return nil
}

// SaveChildren replaces the children of every listed category at once. A
// leaf listed here is moved: it is removed from any parent not in the map.
func (s *Store) SaveChildren(_ context.Context, shopID uuid.UUID, children map[uuid.UUID][]uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	moved := make(map[uuid.UUID]bool)
	for _, kids := range children {
		for _, k := range kids {
			moved[k] = true
		}
	}
	for id, c := range s.categories[shopID] {
		if _, listed := children[id]; listed {
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(c.Children), func(k uuid.UUID) bool { return moved[k] })
		if len(kept) != len(c.Children) {
			c.Children, c.UpdatedAt = kept, now
			s.categories[shopID][id] = c
		}
	}
	for id, kids := range children {
		c, ok := s.categories[shopID][id]
		if !ok {
			continue
		}
		c.Children = slices.Clone(kids)
		if c.Children == nil {
			c.Children = []uuid.UUID{}
		}
		c.UpdatedAt = now
		s.categories[shopID][id] = c
	}
	return nil
}

// Delete removes a category. Deleting an unknown id is not an error.
func (s *Store) Delete(_ context.Context, shopID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.categories[shopID], id)
	s.order[shopID] = slices.DeleteFunc(s.order[shopID], func(x uuid.UUID) bool { return x == id })
	return nil
}

// CreateShop adds a shop.
func (s *Store) CreateShop(_ context.Context, name, slug string) (*models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sh := range s.shops {
		if sh.Slug == slug {
			return nil, fmt.Errorf("create shop: slug %q already exists", slug)
		}
	}
	sh := models.Shop{ID: uuid.New(), Name: name, Slug: slug, CreatedAt: s.now()}
	s.shops[sh.ID] = sh
	return &sh, nil
}

// FindShop returns the shop with the given id, or nil.
func (s *Store) FindShop(_ context.Context, id uuid.UUID) (*models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shops[id]
	if !ok {
		return nil, nil
	}
	return &sh, nil
}

// CountUsers returns the number of accounts across all shops.
func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// CreateUser stores an account. Emails are unique, case-insensitively.
func (s *Store) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return nil, fmt.Errorf("create user: email %q already exists", u.Email)
		}
	}
	created := *u
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.users[created.ID] = created
	return &created, nil
}

// FindByEmail returns the user with the given email, or nil.
func (s *Store) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// FindByID returns the user with the given id, or nil.
func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// SetTOTPSecret stores the pending TOTP secret of a user.
func (s *Store) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	return s.updateUser(id, func(u *models.User) { u.TOTPSecret = &secret })
}

// EnableTOTP marks 2FA as active for a user.
func (s *Store) EnableTOTP(_ context.Context, id uuid.UUID) error {
	return s.updateUser(id, func(u *models.User) { u.TOTPEnabled = true })
}

func (s *Store) updateUser(id uuid.UUID, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	fn(&u)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// Record appends an audit event.
func (s *Store) Record(_ context.Context, e models.CategoryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEvent++
	e.ID = s.nextEvent
	e.CreatedAt = s.now()
	s.events = append(s.events, e)
}

// RecentEvents returns up to limit events of a shop, newest first.
func (s *Store) RecentEvents(_ context.Context, shopID uuid.UUID, limit int) ([]models.CategoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.CategoryEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].ShopID == shopID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
