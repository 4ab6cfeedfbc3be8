package authclient

// SessionState is derived from the session fields, never stored.
type SessionState string

const (
	// StateAnonymous means no user, no token and no pending verification.
	StateAnonymous SessionState = "anonymous"
	// StatePendingVerification means the first factor succeeded and the
	// session is waiting on an OTP.
	StatePendingVerification SessionState = "pending-verification"
	// StateAuthenticated means user and access token are both held.
	StateAuthenticated SessionState = "authenticated"
)

// OpKind tags which operation produced a session error so stale failures
// from a different operation are never surfaced.
type OpKind string

const (
	OpLogin    OpKind = "login"
	OpRegister OpKind = "register"
	OpOTP      OpKind = "otp"
	OpVerify   OpKind = "verify"
	OpProfile  OpKind = "profile"
	OpToken    OpKind = "token"
)

// SessionError is the passive display projection of the most recent failed
// operation. Control flow uses the returned error, never this slot.
type SessionError struct {
	Op      OpKind `json:"op"`
	Message string `json:"message"`
}

// Session is a read-only snapshot of the authentication session. Snapshots
// are value copies; mutating one has no effect on the manager.
type Session struct {
	User        *UserProfile
	AccessToken string
	Pending     *PendingVerification
	Err         *SessionError
	// Ready flips to true exactly once, after restoration, and never
	// reverts.
	Ready bool
	// InFlight reports whether an operation is currently running; UI
	// loading indicator.
	InFlight bool
}

// State derives the session state. A half-restored session (token without
// user or vice versa) is still reported authenticated only when both are
// present.
func (s Session) State() SessionState {
	switch {
	case s.User != nil && s.AccessToken != "":
		return StateAuthenticated
	case s.Pending != nil:
		return StatePendingVerification
	default:
		return StateAnonymous
	}
}

// Authenticated reports whether the session holds both user and token.
func (s Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

func (s Session) clone() Session {
	out := s
	out.User = s.User.Clone()
	out.Pending = s.Pending.clone()
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}
