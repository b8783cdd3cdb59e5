package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desertcandleworks/backend-store/internal/common"
)

func loginAs(t *testing.T, svc *Service, q *stubQuerier, email, role string) string {
	t.Helper()
	user, err := svc.Register(context.Background(), "Test User", email, "hunter2hunter2")
	require.NoError(t, err)
	if role != RoleCustomer {
		stored := q.users[user.Email]
		stored.Role = role
		q.users[user.Email] = stored
		q.byID[stored.ID] = stored
	}
	result, err := svc.Login(context.Background(), email, "hunter2hunter2")
	require.NoError(t, err)
	return result.AccessToken
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, newStubQuerier())
	mw := Middleware{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesUserContext(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	token := loginAs(t, svc, q, "joss@example.com", RoleCustomer)
	mw := Middleware{Service: svc}

	var gotUser, gotRole string
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireAuth(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotRole, _ = common.UserRole(r.Context())
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, gotUser)
	require.Equal(t, RoleCustomer, gotRole)
}

func TestRequireAdminForbidsCustomers(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	token := loginAs(t, svc, q, "joss@example.com", RoleCustomer)
	mw := Middleware{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireAdmin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmins(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	token := loginAs(t, svc, q, "admin@example.com", RoleAdmin)
	mw := Middleware{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	called := false
	mw.RequireAdmin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}
