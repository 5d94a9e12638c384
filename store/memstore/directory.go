package memstore

import (
	"context"
	"sync"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
)

// Directory is a seedable in-memory user directory.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewDirectory(users ...model.User) *Directory {
	d := &Directory{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put adds or replaces a user.
func (d *Directory) Put(u model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.byID[u.ID] = u
	if u.Email != "" {
		d.byEmail[store.NormalizeEmail(u.Email)] = u.ID
	}
}

// Remove drops a user, leaving any conversation references dangling.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.byID[id]; ok {
		delete(d.byEmail, store.NormalizeEmail(u.Email))
		delete(d.byID, id)
	}
}

func (d *Directory) FindByID(_ context.Context, id string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (d *Directory) FindByEmail(_ context.Context, email string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := d.byID[id]
	return &u, nil
}

func (d *Directory) FindByIDs(_ context.Context, ids []string) (map[string]model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]model.User, len(ids))
	for _, id := range ids {
		if u, ok := d.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
