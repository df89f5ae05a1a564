package remote

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Identity is the signed-in user. The zero value means signed out.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// SignedIn reports whether the identity belongs to a user
func (i Identity) SignedIn() bool {
	return i.UID != ""
}

// IdentityProvider signs users up, in and out and announces every change.
// SignUp returns ErrAccountExists when the email is already registered.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	Changes() <-chan Identity
}

// identityFeed is a latest-wins change stream
type identityFeed struct {
	mu sync.Mutex
	ch chan Identity
}

func newIdentityFeed() *identityFeed {
	return &identityFeed{ch: make(chan Identity, 1)}
}

func (f *identityFeed) publish(id Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.ch:
	default:
	}
	f.ch <- id
}

// MemoryIdentity keeps accounts in memory
type MemoryIdentity struct {
	mu       sync.Mutex
	accounts map[string]memoryAccount
	feed     *identityFeed
}

type memoryAccount struct {
	uid      string
	password string
}

func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		accounts: make(map[string]memoryAccount),
		feed:     newIdentityFeed(),
	}
}

func (m *MemoryIdentity) SignUp(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	if _, exists := m.accounts[email]; exists {
		m.mu.Unlock()
		return Identity{}, ErrAccountExists
	}
	acct := memoryAccount{uid: uuid.NewString(), password: password}
	m.accounts[email] = acct
	m.mu.Unlock()

	id := Identity{UID: acct.uid, Email: email, Token: "memory-" + acct.uid}
	m.feed.publish(id)
	return id, nil
}

func (m *MemoryIdentity) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	acct, ok := m.accounts[email]
	m.mu.Unlock()
	if !ok || acct.password != password {
		return Identity{}, ErrInvalidCredentials
	}

	id := Identity{UID: acct.uid, Email: email, Token: "memory-" + acct.uid}
	m.feed.publish(id)
	return id, nil
}

func (m *MemoryIdentity) SignOut(ctx context.Context) error {
	m.feed.publish(Identity{})
	return nil
}

func (m *MemoryIdentity) Changes() <-chan Identity {
	return m.feed.ch
}
