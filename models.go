package authclient

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// UserProfile is the canonical projection of the backend user record. The
// backend may return additional read-only fields on /auth/me; only this shape
// is kept in memory and persisted.
type UserProfile struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      UserRole   `json:"role"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Clone returns an independent copy so snapshots can be handed out without
// exposing the manager's internal state to mutation.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	out := *u
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		out.CreatedAt = &t
	}
	return &out
}

// FlowKind distinguishes which first-factor step produced a pending
// verification.
type FlowKind string

const (
	FlowLogin        FlowKind = "login"
	FlowRegistration FlowKind = "registration"
)

// PendingVerification exists between a successful credential step and the
// OTP confirmation.
type PendingVerification struct {
	Email string   `json:"email"`
	Flow  FlowKind `json:"flow"`
}

// IsRegistration reports whether the pending flow came from registration.
func (p PendingVerification) IsRegistration() bool {
	return p.Flow == FlowRegistration
}

func (p *PendingVerification) clone() *PendingVerification {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

// LoginPayload carries first-factor credentials.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterPayload carries the fields sent to /auth/register. Role is fixed
// client-side to DefaultRegistrationRole and not caller supplied.
type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Name, validation.Length(1, 200)),
	)
}

// OTPPayload carries the second-factor code for either verification variant.
type OTPPayload struct {
	Email string `json:"email"`
	Code  string `json:"otp_code"`
}

func (r OTPPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(4, 10), is.Digit),
	)
}
