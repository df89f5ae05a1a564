// Package gate keeps the secret-unlock flags of the protected sections.
// It is a speed bump, not a security boundary: wrong secrets can be retried
// without limit and the flags live only as long as the Gate value.
package gate

import (
	"crypto/subtle"
	"sync"
)

// Section names a list that can be put behind a secret
type Section string

const (
	SectionGoals    Section = "goals"
	SectionWishes   Section = "wishes"
	SectionTodos    Section = "todos"
	SectionShopping Section = "shopping"
)

// Gate owns one unlock flag per protected section
type Gate struct {
	mu       sync.Mutex
	secrets  map[Section]string
	unlocked map[Section]bool
}

// New creates a gate. Sections with an empty secret are not protected.
func New(secrets map[Section]string) *Gate {
	g := &Gate{
		secrets:  make(map[Section]string),
		unlocked: make(map[Section]bool),
	}
	for s, secret := range secrets {
		if secret != "" {
			g.secrets[s] = secret
		}
	}
	return g
}

// Protected reports whether the section asks for a secret at all
func (g *Gate) Protected(s Section) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.secrets[s]
	return ok
}

// Unlocked reports whether the section can be shown
func (g *Gate) Unlocked(s Section) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.secrets[s]; !ok {
		return true
	}
	return g.unlocked[s]
}

// Unlock checks the secret and, if it matches, keeps the section open until Close
func (g *Gate) Unlock(s Section, secret string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	want, ok := g.secrets[s]
	if !ok {
		return true
	}
	if g.unlocked[s] {
		return true
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(secret)) != 1 {
		return false
	}
	g.unlocked[s] = true
	return true
}

// Close ends the session and locks every section again
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlocked = make(map[Section]bool)
}
