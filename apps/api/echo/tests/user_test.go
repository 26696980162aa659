package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/user"
)

func TestUserQuery(t *testing.T) {
	db.Reset()
	sa := createUser(t, "u.q.sa@test.cd", "SuperAdmin", "", "")
	ia := createUser(t, "u.q.ia@test.cd", "InstitutionAdmin", "inst1", "")
	tchr := createUser(t, "u.q.t@test.cd", "Teacher", "inst1", "")
	s2 := createUser(t, "u.q.s2@test.cd", "Student", "inst2", "")

	tests := []httpTest{
		{
			name: "no token", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "superadmin sees everyone", method: http.MethodGet, path: "/v1/users",
			token: getToken(t, sa.Email), wantCode: http.StatusOK,
			wantData: marchallItems(t, sa, ia, tchr, s2),
		},
		{
			name: "institution admin sees own tenant", method: http.MethodGet, path: "/v1/users",
			token: getToken(t, ia.Email), wantCode: http.StatusOK,
			wantData: marchallItems(t, ia, tchr),
		},
		{
			name: "student sees only themself", method: http.MethodGet, path: "/v1/users",
			token: getToken(t, s2.Email), wantCode: http.StatusOK,
			wantData: marchallItems(t, s2),
		},
		{
			name: "role filter", method: http.MethodGet, path: "/v1/users?role=Teacher",
			token: getToken(t, sa.Email), wantCode: http.StatusOK,
			wantData: marchallItems(t, tchr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(tt))
		})
	}

	t.Run("pagination", func(t *testing.T) {
		rec := do(httpTest{method: http.MethodGet, path: "/v1/users?page_size=2", token: getToken(t, sa.Email)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page struct {
			Items      []user.User `json:"items"`
			NextCursor string      `json:"next_cursor"`
		}
		decodeObj(t, rec, &page)
		require.Len(t, page.Items, 2)
		require.NotEmpty(t, page.NextCursor)

		rec = do(httpTest{
			method: http.MethodGet,
			path:   "/v1/users?page_size=2&cursor=" + page.NextCursor,
			token:  getToken(t, sa.Email),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeObj(t, rec, &page)
		assert.Len(t, page.Items, 2)
	})
}

func TestUserRetrieve(t *testing.T) {
	s := createUser(t, "u.r.s@test.cd", "Student", "inst1", "")
	other := createUser(t, "u.r.o@test.cd", "Student", "inst1", "")
	ia := createUser(t, "u.r.ia@test.cd", "InstitutionAdmin", "inst1", "")
	otherAdmin := createUser(t, "u.r.ia2@test.cd", "InstitutionAdmin", "inst2", "")

	tests := []httpTest{
		{
			name: "self", method: http.MethodGet, path: "/v1/users/" + s.ID,
			token: getToken(t, s.Email), wantCode: http.StatusOK, wantData: marchallObj(t, s),
		},
		{
			name: "student cannot read others", method: http.MethodGet, path: "/v1/users/" + other.ID,
			token: getToken(t, s.Email), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "tenant admin reads member", method: http.MethodGet, path: "/v1/users/" + s.ID,
			token: getToken(t, ia.Email), wantCode: http.StatusOK, wantData: marchallObj(t, s),
		},
		{
			name: "foreign admin denied", method: http.MethodGet, path: "/v1/users/" + s.ID,
			token: getToken(t, otherAdmin.Email), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "missing user", method: http.MethodGet, path: "/v1/users/nope",
			token: getToken(t, ia.Email), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(tt))
		})
	}
}

func TestUserUpdate(t *testing.T) {
	s := createUser(t, "u.u.s@test.cd", "Student", "inst1", "")
	ia := createUser(t, "u.u.ia@test.cd", "InstitutionAdmin", "inst1", "")

	t.Run("self update", func(t *testing.T) {
		rec := do(httpTest{
			method: http.MethodPut, path: "/v1/users/" + s.ID,
			body: marchallObj(t, user.UpdateUser{Name: "Jane Doe"}), token: getToken(t, s.Email),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decodeObj(t, rec, &usr)
		assert.Equal(t, "Jane Doe", usr.Name)
	})

	t.Run("self role change denied", func(t *testing.T) {
		rec := do(httpTest{
			method: http.MethodPut, path: "/v1/users/" + s.ID,
			body: marchallObj(t, user.UpdateUser{Role: "Teacher"}), token: getToken(t, s.Email),
		})
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("admin role change re-syncs claims", func(t *testing.T) {
		rec := do(httpTest{
			method: http.MethodPut, path: "/v1/users/" + s.ID,
			body: marchallObj(t, user.UpdateUser{Role: "Teacher"}), token: getToken(t, ia.Email),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decodeObj(t, rec, &usr)
		assert.Equal(t, access.RoleTeacher, usr.Role)
	})
}

func TestUserDestroy(t *testing.T) {
	s := createUser(t, "u.d.s@test.cd", "Student", "inst1", "")
	ia := createUser(t, "u.d.ia@test.cd", "InstitutionAdmin", "inst1", "")
	iaToken := getToken(t, ia.Email)

	tests := []httpTest{
		{
			name: "non-admin denied", method: http.MethodDelete, path: "/v1/users/" + ia.ID,
			token: getToken(t, s.Email), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "no self-delete", method: http.MethodDelete, path: "/v1/users/" + ia.ID,
			token: iaToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "admin deletes member", method: http.MethodDelete, path: "/v1/users/" + s.ID,
			token: iaToken, wantCode: http.StatusNoContent,
		},
		{
			name: "deleted user is gone", method: http.MethodGet, path: "/v1/users/" + s.ID,
			token: iaToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(tt))
		})
	}
}

func TestUserInvite(t *testing.T) {
	ia := createUser(t, "u.i.ia@test.cd", "InstitutionAdmin", "inst1", "")

	rec := do(httpTest{
		method: http.MethodPost, path: "/v1/users/invite",
		body:  marchallObj(t, user.InviteUser{Email: "u.i.invited@test.cd", Role: "Student", InstitutionID: "inst1"}),
		token: getToken(t, ia.Email),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var usr user.User
	decodeObj(t, rec, &usr)
	assert.Equal(t, "u.i.invited@test.cd", usr.Email)
	assert.Equal(t, access.RoleStudent, usr.Role)
}

func TestUserBulkImport(t *testing.T) {
	sa := createUser(t, "u.b.sa@test.cd", "SuperAdmin", "", "")
	tchr := createUser(t, "u.b.t@test.cd", "Teacher", "inst1", "")

	csvBody := []byte("email,password,role,institutionId,name\n" +
		"u.b.one@test.cd,secret1234,Student,inst1,One\n" +
		"u.b.skip@test.cd,secret1234,Wizard,inst1,Skipped\n" +
		"u.b.two@test.cd,secret1234,Teacher,inst1,Two\n")

	t.Run("non-superadmin denied", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/bulk", body: csvBody, token: getToken(t, tchr.Email),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		}
		checkCodeAndData(t, tt, do(tt))
	})

	t.Run("superadmin imports", func(t *testing.T) {
		rec := do(httpTest{method: http.MethodPost, path: "/v1/users/bulk", body: csvBody, token: getToken(t, sa.Email)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var page struct {
			Items []user.User `json:"items"`
		}
		decodeObj(t, rec, &page)
		require.Len(t, page.Items, 2, "the unknown-role row is skipped")
		assert.Equal(t, "u.b.one@test.cd", page.Items[0].Email)
		assert.Equal(t, "u.b.two@test.cd", page.Items[1].Email)
	})
}
