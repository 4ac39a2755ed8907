package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Mufti-IBAK/mubeen-website-sub001/apps/api/echo"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	testutil "github.com/Mufti-IBAK/mubeen-website-sub001/tests"
)

func Test_profileApi_me(t *testing.T) {
	app := setup(t)

	t.Run("first sight creates the profile", func(t *testing.T) {
		token := getToken(t, profile.Profile{ID: "auth0|new", Email: "New@Example.com", Name: "Newcomer"})
		req, rec := newAuthRequest(http.MethodGet, "/api/me", token)
		app.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var p profile.Profile
		unmarshal(t, rec, &p)
		assert.Equal(t, "auth0|new", p.ID)
		assert.Equal(t, "new@example.com", p.Email)
		assert.Equal(t, "Newcomer", p.Name)
		assert.Empty(t, p.Roles)

		_, err := app.profileRepo.GetProfile(req.Context(), "auth0|new")
		assert.NoError(t, err)
	})

	wrongKey := &core.Config{}
	wrongKey.Auth.JWTSigningKey = "another-key"
	badToken, err := echoapi.GenerateToken(wrongKey, echoapi.NewClaims(wrongKey, "auth0|x", "", "", time.Hour))
	require.NoError(t, err)
	expired, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, "auth0|x", "", "", -time.Hour))
	require.NoError(t, err)
	noSubject, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, "", "", "", time.Hour))
	require.NoError(t, err)

	invalid := marchallObj(t, httpErr{Error: "invalid or expired jwt"})
	runHTTPTests(t, app, []httpTest{
		{name: "missing token", path: "/api/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "wrong signing key", path: "/api/me", token: badToken, wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "expired", path: "/api/me", token: expired, wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "no subject", path: "/api/me", token: noSubject, wantCode: http.StatusUnauthorized, wantData: invalid},
	})
}

func Test_profileApi_setRoles(t *testing.T) {
	app := setup(t)

	owner := testutil.CreateProfile(t, app.profileRepo, "auth0|owner", "Owner", "owner@mubeen.test", []string{profile.RoleAdminOwner})
	editor := testutil.CreateProfile(t, app.profileRepo, "auth0|editor", "Editor", "editor@mubeen.test", []string{profile.RoleAdminEditor})
	student := testutil.CreateProfile(t, app.profileRepo, "auth0|student", "Student", "student@mubeen.test", []string{profile.RoleStudent})

	path := func(p profile.Profile) string { return "/api/admin/profiles/" + p.ID + "/roles" }
	promoted := student
	promoted.Roles = []string{profile.RoleInstructor}

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodPut, path: path(owner), token: getToken(t, student),
			body: []byte(`{"roles":["admin:owner"]}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown role", method: http.MethodPut, path: path(student), token: getToken(t, owner),
			body: []byte(`{"roles":["wizard:"]}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "cannot grant above own rank", method: http.MethodPut, path: path(student), token: getToken(t, editor),
			body: []byte(`{"roles":["admin:owner"]}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "cannot manage a higher rank", method: http.MethodPut, path: path(owner), token: getToken(t, editor),
			body: []byte(`{"roles":[]}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: profile.ErrForbidden.Error()}),
		},
		{
			name: "unknown profile", method: http.MethodPut, path: "/api/admin/profiles/auth0|ghost/roles", token: getToken(t, owner),
			body: []byte(`{"roles":[]}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: profile.ErrNotFound.Error()}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("grant", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path(student), getToken(t, editor), []byte(`{"roles":[" Instructor: ","instructor:"]}`))
		app.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var p profile.Profile
		unmarshal(t, rec, &p)
		assert.Equal(t, promoted.Roles, p.Roles)
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/profiles?role=admin:", getToken(t, owner))
		app.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		var profiles []profile.Profile
		unmarshal(t, rec, &profiles)
		ids := make([]string, 0, len(profiles))
		for _, p := range profiles {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, []string{owner.ID, editor.ID}, ids)
	})
}
