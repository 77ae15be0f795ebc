package authstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager resolves login state for an account, preferring the local
// state file and falling back to the blob mirror. Every successful
// resolution re-mirrors the state so both copies converge.
type Manager struct {
	statePath string
	blobStore BlobStore
	log       *zap.Logger

	mu     sync.Mutex
	cached map[string]LoginState
}

func NewManager(statePath string, blobStore BlobStore, log *zap.Logger) (*Manager, error) {
	if statePath == "" {
		return nil, fmt.Errorf("state path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		statePath: statePath,
		blobStore: blobStore,
		log:       log,
		cached:    make(map[string]LoginState),
	}, nil
}

// Resolve returns the login state for an account. The first hit is
// cached; expired tokens are rejected so the caller re-runs the login.
func (m *Manager) Resolve(ctx context.Context, account string) (LoginState, error) {
	m.mu.Lock()
	if state, ok := m.cached[account]; ok {
		m.mu.Unlock()
		if tokenExpired(state) {
			return LoginState{}, fmt.Errorf("login token for %s expired", account)
		}
		return state, nil
	}
	m.mu.Unlock()

	state, err := m.load(ctx, account)
	if err != nil {
		return LoginState{}, err
	}
	if tokenExpired(state) {
		return LoginState{}, fmt.Errorf("login token for %s expired", account)
	}

	m.mu.Lock()
	m.cached[account] = state
	m.mu.Unlock()
	return state, nil
}

// Store persists freshly obtained login state locally and mirrors it
// to the blob store. A mirror failure is logged, not fatal.
func (m *Manager) Store(ctx context.Context, account string, state LoginState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	if err := WriteState(m.statePath, state); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	m.mu.Lock()
	m.cached[account] = state
	m.mu.Unlock()

	if m.blobStore == nil {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := m.blobStore.Save(ctx, account, data); err != nil {
		m.log.Warn("login state mirror failed", zap.String("account", account), zap.Error(err))
	}
	return nil
}

func (m *Manager) load(ctx context.Context, account string) (LoginState, error) {
	local, localErr := LoadState(m.statePath)
	if localErr == nil {
		return local, nil
	}
	if !errors.Is(localErr, ErrStateNotFound) {
		return LoginState{}, localErr
	}

	if m.blobStore == nil {
		return LoginState{}, localErr
	}
	data, blobErr := m.blobStore.Load(ctx, account)
	if blobErr != nil {
		if errors.Is(blobErr, ErrBlobNotFound) {
			return LoginState{}, ErrStateNotFound
		}
		return LoginState{}, blobErr
	}
	state, err := DecodeState(data)
	if err != nil {
		return LoginState{}, err
	}
	if err := WriteState(m.statePath, state); err != nil {
		m.log.Warn("restoring local state failed", zap.String("account", account), zap.Error(err))
	}
	return state, nil
}

func tokenExpired(state LoginState) bool {
	if state.Token == nil || state.Token.Expiry.IsZero() {
		return false
	}
	return time.Until(state.Token.Expiry) < 30*time.Second
}
