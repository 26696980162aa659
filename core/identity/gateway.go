// Package identity defines the Identity Gateway: the external collaborator
// that owns credentials, token issuance/verification and role/tenant claims.
package identity

import (
	"context"
	"errors"

	"github.com/edutrack/edutrack/core/access"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("identity not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the result of a successful login.
type Session struct {
	Token string      `json:"token"`
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

// Gateway is the Identity Gateway contract. Implementations: Firebase Auth
// (production) and a local JWT issuer (dev & tests). The gateway - not this
// service - owns password verification.
type Gateway interface {
	// Verify checks a bearer credential and returns the caller it asserts.
	Verify(ctx context.Context, token string) (access.Identity, error)

	// CreateUser provisions a credential and returns the new subject id.
	// An empty password provisions an account that must be set up via a
	// password setup link.
	CreateUser(ctx context.Context, email, password string) (string, error)

	// SetClaims mirrors role/tenant attributes onto the subject's credential.
	SetClaims(ctx context.Context, uid string, claims access.Claims) error

	// IssueToken authenticates the credential and issues a session token.
	IssueToken(ctx context.Context, email, password string) (Session, error)

	// PasswordSetupLink returns a link the user can follow to (re)set their
	// password.
	PasswordSetupLink(ctx context.Context, email string) (string, error)

	// DeleteUser removes the credential.
	DeleteUser(ctx context.Context, uid string) error
}
