package session

import (
	"context"
	"fmt"

	"github.com/hupe1980/loop/internal/api"
)

// Client is the subset of *api.Client used for authentication.
type Client interface {
	Login(ctx context.Context, creds api.Credentials) (*api.User, error)
	Register(ctx context.Context, reg api.Registration) (*api.User, error)
	Logout(ctx context.Context) error
	Cookies() map[string]string
}

// Manager signs users in and out and keeps the store current.
type Manager struct {
	client Client
	store  *Store
	state  *State
}

// NewManager loads the stored session and returns a Manager for it.
func NewManager(client Client, store *Store) (*Manager, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Manager{client: client, store: store, state: state}, nil
}

// Signup registers a new account and persists its session.
func (m *Manager) Signup(ctx context.Context, reg api.Registration) (*api.User, error) {
	user, err := m.client.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	return user, m.persist(user)
}

// Login authenticates and persists the session.
func (m *Manager) Login(ctx context.Context, creds api.Credentials) (*api.User, error) {
	user, err := m.client.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return user, m.persist(user)
}

// Logout ends the session on the server, then forgets it locally. When the
// server call fails the local session is kept.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.client.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if err := m.store.Clear(); err != nil {
		return err
	}

	m.state = &State{}

	return nil
}

// Current returns the signed-in user, or nil.
func (m *Manager) Current() *api.User {
	return m.state.User
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	return m.state.Authenticated()
}

func (m *Manager) persist(user *api.User) error {
	state := &State{User: user, Cookies: m.client.Cookies()}
	if err := m.store.Save(state); err != nil {
		return err
	}

	m.state = state

	return nil
}
