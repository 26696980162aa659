package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/edutrack/edutrack/apps/api/echo"
	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/analytics"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/core/user"
	emailsvc "github.com/edutrack/edutrack/services/email"
	identitysvc "github.com/edutrack/edutrack/services/identity"
	logsvc "github.com/edutrack/edutrack/services/logger"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

const testPassword = "secret1234"

var (
	conf    *core.Config
	db      *inmemdb.DB
	gateway *identitysvc.LocalGateway
	app     echoapi.Server

	usrSvc *user.Service
	crsSvc *course.Service
	enrSvc *enrollment.Service

	errMissingToken     = httpErr{Error: "missing or malformed token"}
	errInvalidToken     = httpErr{Error: "invalid or expired token"}
	errPermissionDenied = httpErr{Error: "permission denied"}
	errNotFound         = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:         true,
		AppName:          "EduTrack",
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@localhost",
		DefaultPageSize:  20,
		MaxPageSize:      100,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
		},
	}

	// set up store & gateway
	db = inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	gateway = identitysvc.NewLocalGateway(conf)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(conf, usrRepo, gateway, mailSvc)
	crsSvc = course.NewService(conf, crsRepo, enrRepo)
	enrSvc = enrollment.NewService(conf, enrRepo)
	anlSvc := analytics.NewService(crsRepo, enrRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up server
	app = echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
			Gateway:        gateway,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			EnrollmentSvc:  enrSvc,
			AnalyticsSvc:   anlSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type listResp struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// createUser registers an account through the user service; the gateway
// credential, claims and document all exist afterwards.
func createUser(t *testing.T, email, role, institutionID, childID string) user.User {
	t.Helper()
	usr, err := usrSvc.Register(context.Background(), user.NewUser{
		Email:         email,
		Password:      testPassword,
		Role:          role,
		InstitutionID: institutionID,
		ChildID:       childID,
	})
	if err != nil {
		t.Fatalf("createUser(%s): %v", email, err)
	}
	return usr
}

func getToken(t *testing.T, email string) string {
	t.Helper()
	session, err := gateway.IssueToken(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("getToken(%s): %v", email, err)
	}
	return session.Token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallItems(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	items := make([]interface{}, 0, len(objs))
	items = append(items, objs...)
	return marchallObj(t, listResp{Items: items})
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}
