package authclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Restore hydrates the session from the store. It runs once per manager;
// later calls are no-ops. The three logical groups (token, user blob,
// pending pair) are read concurrently and restored independently: a corrupt
// user blob or a failed read degrades to "field absent" and never aborts
// the rest. Whatever happens, the session ends up ready in a decidable
// state, so callers are never stuck waiting on restoration.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.Ready() {
		return nil
	}

	var (
		token   string
		user    *UserProfile
		pending *PendingVerification
	)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		token = m.restoreToken(ctx)
	}()
	go func() {
		defer wg.Done()
		user = m.restoreUser(ctx)
	}()
	go func() {
		defer wg.Done()
		pending = m.restorePending(ctx)
	}()

	wg.Wait()

	m.mu.Lock()
	m.session.AccessToken = token
	m.session.User = user
	m.session.Pending = pending
	m.session.Ready = true
	m.mu.Unlock()

	m.notify()

	m.logger.Info("session restored: state=%s", m.Session().State())

	return nil
}

func (m *SessionManager) restoreToken(ctx context.Context) string {
	value, ok, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		m.logger.Warn("failed to read persisted token: %v", err)
		return ""
	}
	if !ok {
		return ""
	}

	if exp, found := TokenExpiresAt(value); found && exp.Before(m.now()) {
		// Keep it anyway: expiry enforcement belongs to the backend, the
		// gateway tears the session down on the resulting 401.
		m.logger.Debug("restored token expired at %s", exp.Format(time.RFC3339))
	}

	return value
}

func (m *SessionManager) restoreUser(ctx context.Context) *UserProfile {
	value, ok, err := m.store.Get(ctx, KeyUser)
	if err != nil {
		m.logger.Warn("failed to read persisted user: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	user := &UserProfile{}
	if err := json.Unmarshal([]byte(value), user); err != nil {
		m.logger.Warn("failed to decode persisted user, discarding: %v", err)
		return nil
	}

	return user
}

// restorePending reads the pending pair both-or-neither: a lone email with
// no flow flag is discarded rather than guessed at.
func (m *SessionManager) restorePending(ctx context.Context) *PendingVerification {
	email, ok, err := m.store.Get(ctx, KeyPendingEmail)
	if err != nil {
		m.logger.Warn("failed to read pending email: %v", err)
		return nil
	}
	if !ok || email == "" {
		return nil
	}

	rawFlag, ok, err := m.store.Get(ctx, KeyPendingIsRegistration)
	if err != nil {
		m.logger.Warn("failed to read pending flow flag: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var registration bool
	if err := json.Unmarshal([]byte(rawFlag), &registration); err != nil {
		m.logger.Warn("failed to decode pending flow flag, discarding: %v", err)
		return nil
	}

	flow := FlowLogin
	if registration {
		flow = FlowRegistration
	}

	return &PendingVerification{Email: email, Flow: flow}
}
