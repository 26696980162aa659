// Package identitysvc provides the Identity Gateway implementations: Firebase
// Auth for production and a local JWT issuer for dev & tests.
package identitysvc

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/identity"
)

// Claims is the token payload issued and verified by the local gateway.
type Claims struct {
	jwt.StandardClaims
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	InstitutionID string `json:"institutionId,omitempty"`
	ChildID       string `json:"childId,omitempty"`
}

type credential struct {
	uid          string
	email        string
	passwordHash []byte
	claims       access.Claims
}

// LocalGateway is an in-process identity.Gateway: bcrypt credentials held in
// memory and HS256 session tokens signed with the app secret. It stands in
// for Firebase Auth when no project is configured.
type LocalGateway struct {
	conf *core.Config

	mutex   sync.RWMutex
	byUID   map[string]*credential
	byEmail map[string]*credential
}

var _ identity.Gateway = (*LocalGateway)(nil)

func NewLocalGateway(conf *core.Config) *LocalGateway {
	return &LocalGateway{
		conf:    conf,
		byUID:   make(map[string]*credential),
		byEmail: make(map[string]*credential),
	}
}

func (gw *LocalGateway) Verify(ctx context.Context, token string) (access.Identity, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(gw.conf.SecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return access.Identity{}, identity.ErrInvalidToken
	}

	role, err := access.ParseRole(claims.Role)
	if err != nil {
		return access.Identity{}, identity.ErrInvalidToken
	}
	return access.Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		Role:          role,
		InstitutionID: claims.InstitutionID,
		ChildID:       claims.ChildID,
	}, nil
}

func (gw *LocalGateway) CreateUser(ctx context.Context, email, password string) (string, error) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()

	if _, ok := gw.byEmail[email]; ok {
		return "", identity.ErrEmailExists
	}

	cred := &credential{uid: uuid.NewString(), email: email}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", errors.Wrap(err, "hashing password")
		}
		cred.passwordHash = hash
	}
	gw.byUID[cred.uid] = cred
	gw.byEmail[email] = cred
	return cred.uid, nil
}

func (gw *LocalGateway) SetClaims(ctx context.Context, uid string, claims access.Claims) error {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()

	cred, ok := gw.byUID[uid]
	if !ok {
		return identity.ErrUserNotFound
	}
	cred.claims = claims
	return nil
}

func (gw *LocalGateway) IssueToken(ctx context.Context, email, password string) (identity.Session, error) {
	gw.mutex.RLock()
	cred, ok := gw.byEmail[email]
	gw.mutex.RUnlock()

	if !ok || cred.passwordHash == nil {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.passwordHash, []byte(password)); err != nil {
		return identity.Session{}, identity.ErrInvalidCredentials
	}

	token, err := gw.generateToken(cred)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{
		Token: token,
		UID:   cred.uid,
		Email: cred.email,
		Role:  cred.claims.Role,
	}, nil
}

func (gw *LocalGateway) PasswordSetupLink(ctx context.Context, email string) (string, error) {
	gw.mutex.RLock()
	cred, ok := gw.byEmail[email]
	gw.mutex.RUnlock()

	if !ok {
		return "", identity.ErrUserNotFound
	}

	// single-purpose short-lived token; the frontend exchanges it on the
	// password setup page
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    gw.conf.AppName,
			Subject:   cred.uid,
			Audience:  "password-setup",
			ExpiresAt: now.Add(gw.conf.Server.JWTRefreshExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: cred.email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(gw.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing setup token")
	}
	return fmt.Sprintf("%s/account/setup-password?token=%s", gw.conf.FrontendBaseURL, url.QueryEscape(ss)), nil
}

func (gw *LocalGateway) DeleteUser(ctx context.Context, uid string) error {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()

	cred, ok := gw.byUID[uid]
	if !ok {
		return identity.ErrUserNotFound
	}
	delete(gw.byUID, uid)
	delete(gw.byEmail, cred.email)
	return nil
}

// SetPassword sets a credential's password directly. Used by the admin CLI
// and by the password setup flow.
func (gw *LocalGateway) SetPassword(uid, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	gw.mutex.Lock()
	defer gw.mutex.Unlock()

	cred, ok := gw.byUID[uid]
	if !ok {
		return identity.ErrUserNotFound
	}
	cred.passwordHash = hash
	return nil
}

func (gw *LocalGateway) generateToken(cred *credential) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    gw.conf.AppName,
			Subject:   cred.uid,
			Audience:  gw.conf.AppName,
			ExpiresAt: now.Add(gw.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:         cred.email,
		Role:          cred.claims.Role.String(),
		InstitutionID: cred.claims.InstitutionID,
		ChildID:       cred.claims.ChildID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(gw.conf.SecretKey))
	return ss, errors.Wrap(err, "signing token")
}
