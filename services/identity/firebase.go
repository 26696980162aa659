package identitysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/identity"
)

const signInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword?key=%s"

// FirebaseGateway implements identity.Gateway on Firebase Auth. Custom claims
// carry the role/tenant attributes; the Admin SDK cannot exchange passwords
// for tokens so login goes through the Identity Toolkit REST endpoint.
type FirebaseGateway struct {
	conf   *core.Config
	client *auth.Client
	http   *http.Client
}

var _ identity.Gateway = (*FirebaseGateway)(nil)

func NewFirebaseGateway(ctx context.Context, conf *core.Config) (*FirebaseGateway, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase auth client")
	}
	return &FirebaseGateway{conf: conf, client: client, http: http.DefaultClient}, nil
}

func (gw *FirebaseGateway) Verify(ctx context.Context, token string) (access.Identity, error) {
	decoded, err := gw.client.VerifyIDToken(ctx, token)
	if err != nil {
		return access.Identity{}, identity.ErrInvalidToken
	}

	role, err := access.ParseRole(strClaim(decoded.Claims, "role"))
	if err != nil {
		return access.Identity{}, identity.ErrInvalidToken
	}
	return access.Identity{
		UID:           decoded.UID,
		Email:         strClaim(decoded.Claims, "email"),
		Role:          role,
		InstitutionID: strClaim(decoded.Claims, "institutionId"),
		ChildID:       strClaim(decoded.Claims, "childId"),
	}, nil
}

func (gw *FirebaseGateway) CreateUser(ctx context.Context, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).Email(email)
	if password != "" {
		params = params.Password(password)
	}

	rec, err := gw.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", identity.ErrEmailExists
		}
		return "", errors.Wrap(err, "creating firebase user")
	}
	return rec.UID, nil
}

func (gw *FirebaseGateway) SetClaims(ctx context.Context, uid string, claims access.Claims) error {
	custom := map[string]interface{}{"role": claims.Role.String()}
	if claims.InstitutionID != "" {
		custom["institutionId"] = claims.InstitutionID
	}
	if claims.ChildID != "" {
		custom["childId"] = claims.ChildID
	}

	if err := gw.client.SetCustomUserClaims(ctx, uid, custom); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.ErrUserNotFound
		}
		return errors.Wrap(err, "setting custom claims")
	}
	return nil
}

func (gw *FirebaseGateway) IssueToken(ctx context.Context, email, password string) (identity.Session, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return identity.Session{}, errors.Wrap(err, "encoding sign-in request")
	}

	url := fmt.Sprintf(signInURL, gw.conf.Firebase.WebAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return identity.Session{}, errors.Wrap(err, "building sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := gw.http.Do(req)
	if err != nil {
		return identity.Session{}, errors.Wrap(err, "calling identity toolkit")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		// INVALID_PASSWORD, EMAIL_NOT_FOUND, USER_DISABLED...
		return identity.Session{}, identity.ErrInvalidCredentials
	}

	var body struct {
		IDToken string `json:"idToken"`
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	}
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return identity.Session{}, errors.Wrap(err, "decoding sign-in response")
	}

	// claims are only available on the verified token
	ident, err := gw.Verify(ctx, body.IDToken)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{
		Token: body.IDToken,
		UID:   body.LocalID,
		Email: body.Email,
		Role:  ident.Role,
	}, nil
}

func (gw *FirebaseGateway) PasswordSetupLink(ctx context.Context, email string) (string, error) {
	link, err := gw.client.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", identity.ErrUserNotFound
		}
		return "", errors.Wrap(err, "generating password reset link")
	}
	return link, nil
}

func (gw *FirebaseGateway) DeleteUser(ctx context.Context, uid string) error {
	if err := gw.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.ErrUserNotFound
		}
		return errors.Wrap(err, "deleting firebase user")
	}
	return nil
}

func strClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
