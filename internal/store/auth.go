package store

import "sync"

// AuthList is the set of chat ids allowed to use the bot, beside the owner.
type AuthList struct {
	mu    sync.Mutex
	path  string
	owner int64
	ids   []int64
}

// OpenAuthList loads the auth file; the owner is always allowed.
func OpenAuthList(path string, owner int64) (*AuthList, error) {
	a := &AuthList{path: path, owner: owner}
	if _, err := loadJSON(path, &a.ids); err != nil {
		return nil, err
	}
	return a, nil
}

// Allowed reports whether id may use the bot.
func (a *AuthList) Allowed(id int64) bool {
	if id == a.owner {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range a.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add authorises an id. Idempotent.
func (a *AuthList) Add(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range a.ids {
		if v == id {
			return nil
		}
	}
	a.ids = append(a.ids, id)
	return saveJSON(a.path, a.ids)
}

// Remove revokes an id.
func (a *AuthList) Remove(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.ids[:0]
	for _, v := range a.ids {
		if v != id {
			out = append(out, v)
		}
	}
	a.ids = out
	return saveJSON(a.path, a.ids)
}

// List returns a copy of the authorised ids.
func (a *AuthList) List() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int64(nil), a.ids...)
}
