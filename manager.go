package authclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// SessionManager owns the session aggregate. Every mutation flows through
// one of its operations; collaborators only read snapshots and invoke
// operations. Mutating operations are serialized behind a single lock so
// storage writes cannot interleave, and each one clears the previous error,
// raises the in-flight flag, and mirrors its result to the SessionStore
// before returning.
type SessionManager struct {
	// opMu serializes mutating operations (and Restore) end to end.
	opMu sync.Mutex
	// mu guards the session fields for concurrent readers.
	mu sync.RWMutex

	api       *Client
	store     SessionStore
	logger    Logger
	now       func() time.Time
	session   Session
	listeners []SessionListener
}

// Option customizes SessionManager construction.
type Option func(*SessionManager)

// WithLogger overrides the logger.
func WithLogger(logger Logger) Option {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *SessionManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithListener registers a listener notified with a snapshot after every
// mutation.
func WithListener(l SessionListener) Option {
	return func(m *SessionManager) {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
	}
}

// New creates a SessionManager. The session starts anonymous and not ready;
// call Restore before routing on it.
func New(api *Client, store SessionStore, opts ...Option) *SessionManager {
	m := &SessionManager{
		api:    api,
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Session returns a snapshot of the current session.
func (m *SessionManager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.clone()
}

// Ready reports whether restoration has completed.
func (m *SessionManager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Ready
}

// AccessToken returns the current bearer token, empty when anonymous.
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken
}

// Login posts first-factor credentials and returns the email the OTP was
// sent to. It does not transition session state; callers follow up with
// StartOTPFlow once they are ready to collect the code.
func (m *SessionManager) Login(ctx context.Context, email, password string) (string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	payload := LoginPayload{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return "", m.fail(OpLogin, newValidationError(err))
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return "", m.fail(OpLogin, err)
	}

	return resp.Email, nil
}

// Register creates an account with the default role and returns the email
// the confirmation OTP was sent to. Like Login it does not transition state.
func (m *SessionManager) Register(ctx context.Context, email, password, name string) (string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	payload := RegisterPayload{Email: email, Password: password, Name: name, Role: DefaultRegistrationRole}
	if err := payload.Validate(); err != nil {
		return "", m.fail(OpRegister, newValidationError(err))
	}

	resp, err := m.api.Register(ctx, email, password, name)
	if err != nil {
		return "", m.fail(OpRegister, err)
	}

	if resp.Email != "" {
		return resp.Email, nil
	}
	return email, nil
}

// StartOTPFlow records that an OTP is pending for email. Pure state
// transition, no network call; the pending pair is written through to the
// store together. The email must be a valid address: an empty pending email
// would not survive restoration, so it is rejected here.
func (m *SessionManager) StartOTPFlow(ctx context.Context, email string, registration bool) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return m.fail(OpOTP, newValidationError(err))
	}

	flow := FlowLogin
	if registration {
		flow = FlowRegistration
	}

	m.mu.Lock()
	m.session.Pending = &PendingVerification{Email: email, Flow: flow}
	m.mu.Unlock()

	m.persistSet(ctx, KeyPendingEmail, email)
	m.persistSet(ctx, KeyPendingIsRegistration, encodeBool(registration))

	return nil
}

// VerifyOTP confirms a login OTP. On success the session becomes
// authenticated: user and token are set and persisted first, then the
// pending pair is cleared. On failure pending is left untouched so the user
// can retry.
func (m *SessionManager) VerifyOTP(ctx context.Context, email, code string) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	payload := OTPPayload{Email: email, Code: code}
	if err := payload.Validate(); err != nil {
		return nil, m.fail(OpOTP, newValidationError(err))
	}

	resp, err := m.api.VerifyOTP(ctx, email, code)
	if err != nil {
		return nil, m.fail(OpOTP, err)
	}

	m.mu.Lock()
	m.session.User = resp.User
	m.session.AccessToken = resp.AccessToken
	m.mu.Unlock()

	m.persistSet(ctx, KeyAccessToken, resp.AccessToken)
	m.persistUser(ctx, resp.User)
	m.clearPending(ctx)

	return resp.User.Clone(), nil
}

// VerifyEmail confirms a registration OTP. On success pending is cleared
// but no credentials are set: registration confirmation does not
// authenticate, the user logs in explicitly afterwards. The backend contract
// is asymmetric here on purpose.
func (m *SessionManager) VerifyEmail(ctx context.Context, email, code string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	payload := OTPPayload{Email: email, Code: code}
	if err := payload.Validate(); err != nil {
		return m.fail(OpVerify, newValidationError(err))
	}

	if err := m.api.VerifyEmail(ctx, email, code); err != nil {
		return m.fail(OpVerify, err)
	}

	m.clearPending(ctx)

	return nil
}

// ClearOTPFlow drops any pending verification, in memory and in the store.
// Used for user-initiated cancellation; calling it with nothing pending is
// a no-op.
func (m *SessionManager) ClearOTPFlow(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	m.clearPending(ctx)

	return nil
}

// Profile fetches /auth/me, replaces the in-memory user with the canonical
// projection, and returns the raw payload so callers can read extra fields.
// Only the projection is persisted. Fails before any network call when no
// token is held.
func (m *SessionManager) Profile(ctx context.Context) (map[string]any, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	token := m.AccessToken()
	if token == "" {
		return nil, m.fail(OpProfile, ErrAuthenticationRequired)
	}

	profile, raw, err := m.api.Me(ctx, token)
	if err != nil {
		return nil, m.fail(OpProfile, err)
	}

	m.mu.Lock()
	m.session.User = profile
	m.mu.Unlock()

	m.persistUser(ctx, profile)

	return raw, nil
}

// LoginWithGoogle completes the OAuth alternative path: it exchanges the
// authorization code for a token, fetches the profile so user and token land
// together, and persists both. Bypasses the OTP flow entirely.
func (m *SessionManager) LoginWithGoogle(ctx context.Context, code, codeVerifier string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	tok, err := m.api.ExchangeToken(ctx, code, codeVerifier, DefaultPlatform)
	if err != nil {
		return m.fail(OpToken, err)
	}

	profile, _, err := m.api.Me(ctx, tok.AccessToken)
	if err != nil {
		return m.fail(OpToken, err)
	}

	m.mu.Lock()
	m.session.User = profile
	m.session.AccessToken = tok.AccessToken
	m.mu.Unlock()

	m.persistSet(ctx, KeyAccessToken, tok.AccessToken)
	m.persistUser(ctx, profile)
	m.clearPending(ctx)

	return nil
}

// SignOut clears the session in memory and removes the persisted projection.
// Idempotent: signing out an anonymous session is a no-op.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.beginOp()
	defer m.endOp()

	m.mu.Lock()
	m.session.User = nil
	m.session.AccessToken = ""
	m.session.Pending = nil
	m.session.Err = nil
	m.mu.Unlock()

	m.persistRemove(ctx, KeyAccessToken)
	m.persistRemove(ctx, KeyUser)
	m.persistRemove(ctx, KeyPendingEmail)
	m.persistRemove(ctx, KeyPendingIsRegistration)

	return nil
}

// ClearError drops the display error slot. No other field is touched.
func (m *SessionManager) ClearError() {
	m.mu.Lock()
	m.session.Err = nil
	m.mu.Unlock()
	m.notify()
}

// beginOp clears the previous error and raises the in-flight flag. Callers
// hold opMu.
func (m *SessionManager) beginOp() {
	m.mu.Lock()
	m.session.Err = nil
	m.session.InFlight = true
	m.mu.Unlock()
	m.notify()
}

// endOp restores the idle indicator on every exit path.
func (m *SessionManager) endOp() {
	m.mu.Lock()
	m.session.InFlight = false
	m.mu.Unlock()
	m.notify()
}

// fail records the failure in the display slot tagged with the operation
// kind and hands the error back for control flow.
func (m *SessionManager) fail(op OpKind, err error) error {
	m.mu.Lock()
	m.session.Err = &SessionError{Op: op, Message: errMessage(err)}
	m.mu.Unlock()

	var richErr *errors.Error
	if errors.As(err, &richErr) && len(richErr.Metadata) > 0 {
		m.logger.Debug("operation %s failed: %s details=%s", op, richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
	} else {
		m.logger.Debug("operation %s failed: %v", op, err)
	}

	return err
}

// clearPending drops pending verification in memory and removes both
// persisted keys.
func (m *SessionManager) clearPending(ctx context.Context) {
	m.mu.Lock()
	m.session.Pending = nil
	m.mu.Unlock()

	m.persistRemove(ctx, KeyPendingEmail)
	m.persistRemove(ctx, KeyPendingIsRegistration)
}

// persistSet writes through to the store. Persistence is best effort: the
// in-memory session stays authoritative for this process lifetime, so store
// failures are logged and swallowed.
func (m *SessionManager) persistSet(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Warn("session store write failed key=%s: %v", key, err)
	}
}

func (m *SessionManager) persistRemove(ctx context.Context, key string) {
	if err := m.store.Remove(ctx, key); err != nil {
		m.logger.Warn("session store remove failed key=%s: %v", key, err)
	}
}

func (m *SessionManager) persistUser(ctx context.Context, user *UserProfile) {
	encoded, err := json.Marshal(user)
	if err != nil {
		m.logger.Warn("failed to encode user for persistence: %v", err)
		return
	}
	m.persistSet(ctx, KeyUser, string(encoded))
}

func (m *SessionManager) notify() {
	if len(m.listeners) == 0 {
		return
	}
	snapshot := m.Session()
	for _, l := range m.listeners {
		l(snapshot)
	}
}

func encodeBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
