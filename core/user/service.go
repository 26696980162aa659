package user

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/identity"
	"github.com/edutrack/edutrack/storage/database"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields
		// and the caller's scope. Soft-deleted users are excluded.
		FilterUsers(ctx context.Context, filter QueryFilter, opts database.ListOptions) ([]User, database.Page, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SoftDeleteUser(ctx context.Context, id string) error
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		gateway identity.Gateway
		mailSvc core.EmailService
	}
)

func NewService(conf *core.Config, repo Repository, gw identity.Gateway, mailSvc core.EmailService) *Service {
	return &Service{conf: conf, repo: repo, gateway: gw, mailSvc: mailSvc}
}

// Register provisions a credential in the Identity Gateway, mirrors the
// role/tenant claims onto it and persists the User document. The gateway
// claims are the source of truth; the document is a queryable mirror.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	role, err := access.ParseRole(nu.Role)
	if err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "role", Error: "invalid role"})
	}

	uid, err := svc.gateway.CreateUser(ctx, nu.Email, nu.Password)
	if err != nil {
		if errors.Cause(err) == identity.ErrEmailExists {
			return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return User{}, errors.Wrap(err, "creating credential")
	}

	claims := access.Claims{Role: role, InstitutionID: nu.InstitutionID, ChildID: nu.ChildID}
	if err = svc.gateway.SetClaims(ctx, uid, claims); err != nil {
		return User{}, errors.Wrap(err, "setting claims")
	}

	now := time.Now().UTC()
	usr := User{
		ID:            uid,
		Email:         nu.Email,
		Name:          nu.Name,
		Role:          role,
		InstitutionID: nu.InstitutionID,
		ChildID:       nu.ChildID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Invite registers a passwordless account and emails a password setup link.
func (svc *Service) Invite(ctx context.Context, iu InviteUser) (User, string, error) {
	usr, err := svc.Register(ctx, NewUser{
		Email:         iu.Email,
		Name:          iu.Name,
		Role:          iu.Role,
		InstitutionID: iu.InstitutionID,
		ChildID:       iu.ChildID,
	})
	if err != nil {
		return User{}, "", err
	}

	link, err := svc.gateway.PasswordSetupLink(ctx, usr.Email)
	if err != nil {
		return User{}, "", errors.Wrap(err, "generating setup link")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "You have been invited to " + svc.conf.AppName,
		TextContent: fmt.Sprintf(
			"An account has been created for you on %s.\n\nSet your password to get started: %s\n",
			svc.conf.AppName, link,
		),
	})
	return usr, link, nil
}

// Filter lists users visible to the caller.
func (svc *Service) Filter(ctx context.Context, ident access.Identity, filter QueryFilter, opts database.ListOptions) ([]User, database.Page, error) {
	filter.Scope = access.UserScope(ident)
	return svc.repo.FilterUsers(ctx, filter, svc.clamp(opts))
}

// GetByID applies the single-resource decision procedure: absent document is
// NotFound, then ownership/role is checked.
func (svc *Service) GetByID(ctx context.Context, ident access.Identity, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = access.CanReadUser(ident, usr.Ref()); err != nil {
		return User{}, err
	}
	return usr, nil
}

// Update merges the set fields into the user. Role/tenant changes require an
// admin caller and are re-synced into the Identity Gateway claims.
func (svc *Service) Update(ctx context.Context, ident access.Identity, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = access.CanMutateUser(ident, usr.Ref()); err != nil {
		return User{}, err
	}
	if uu.ChangesClaims() && !ident.IsAdmin() {
		return User{}, access.ErrForbidden
	}

	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.Role != "" {
		role, rErr := access.ParseRole(uu.Role)
		if rErr != nil {
			return User{}, core.NewValidationError(rErr, core.FieldError{Field: "role", Error: "invalid role"})
		}
		usr.Role = role
	}
	if uu.InstitutionID != "" {
		usr.InstitutionID = uu.InstitutionID
	}
	if uu.ChildID != "" {
		usr.ChildID = uu.ChildID
	}
	usr.UpdatedAt = time.Now().UTC()

	if uu.ChangesClaims() {
		claims := access.Claims{Role: usr.Role, InstitutionID: usr.InstitutionID, ChildID: usr.ChildID}
		if err = svc.gateway.SetClaims(ctx, usr.ID, claims); err != nil {
			return User{}, errors.Wrap(err, "re-syncing claims")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete soft-deletes the user document: the record is kept for auditability
// and excluded from queries. The gateway credential is left in place.
func (svc *Service) Delete(ctx context.Context, ident access.Identity, id string) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = access.CanMutateUser(ident, usr.Ref()); err != nil {
		return err
	}
	return svc.repo.SoftDeleteUser(ctx, id)
}

// SetClaims is the SuperAdmin-only claims override: the gateway is updated
// first (source of truth), then the User document is refreshed from it.
// Requests verified before the next token refresh may still carry the old
// claims; that staleness window is accepted.
func (svc *Service) SetClaims(ctx context.Context, uid string, claims access.Claims) (User, error) {
	if err := svc.gateway.SetClaims(ctx, uid, claims); err != nil {
		if errors.Cause(err) == identity.ErrUserNotFound {
			return User{}, ErrNotFound
		}
		return User{}, errors.Wrap(err, "setting claims")
	}

	usr, err := svc.repo.GetUserByID(ctx, uid)
	if err != nil {
		return User{}, err
	}
	usr.Role = claims.Role
	usr.InstitutionID = claims.InstitutionID
	usr.ChildID = claims.ChildID
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ImportCSV bulk-registers users from CSV rows of the form
// email,password,role[,institutionId[,name]]. Rows with missing fields or an
// unknown role are skipped; gateway/store failures abort the import (no
// retries).
func (svc *Service) ImportCSV(ctx context.Context, r io.Reader) ([]User, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are validated below

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewValidationError(errors.New("empty or malformed CSV"))
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[core.CleanString(name, true /* lower */)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return core.CleanString(row[i])
	}

	var created []User
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, core.NewValidationError(errors.Wrap(err, "malformed CSV row"))
		}

		nu := NewUser{
			Email:         core.CleanString(field(row, "email"), true /* lower */),
			Password:      field(row, "password"),
			Role:          field(row, "role"),
			InstitutionID: field(row, "institutionid"),
			Name:          field(row, "name"),
		}
		if nu.Email == "" || nu.Password == "" || nu.Role == "" {
			continue
		}
		if _, err := access.ParseRole(nu.Role); err != nil {
			continue
		}

		usr, err := svc.Register(ctx, nu)
		if err != nil {
			return created, errors.Wrapf(err, "importing %s", nu.Email)
		}
		created = append(created, usr)
	}
	return created, nil
}

func (svc *Service) clamp(opts database.ListOptions) database.ListOptions {
	if opts.PageSize <= 0 {
		opts.PageSize = svc.conf.DefaultPageSize
	} else if opts.PageSize > svc.conf.MaxPageSize {
		opts.PageSize = svc.conf.MaxPageSize
	}
	return opts
}
