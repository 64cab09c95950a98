package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authlib "github.com/weirdname404/async-arch-course/libs/auth"
	"github.com/weirdname404/async-arch-course/libs/events"
	"github.com/weirdname404/async-arch-course/services/auth-service/internal/auth"
	"github.com/weirdname404/async-arch-course/services/auth-service/internal/domain"
	"github.com/weirdname404/async-arch-course/services/auth-service/internal/persistence/memory"
	"github.com/weirdname404/async-arch-course/services/auth-service/internal/security"
)

var testAuthCfg = auth.Config{Secret: "unit-test-secret", Issuer: "auth-service"}

type noopPublisher struct{}

func (noopPublisher) PublishCUD(context.Context, events.Kind, map[string]any) error { return nil }
func (noopPublisher) PublishBIZ(context.Context, events.Kind, map[string]any) error { return nil }

func newTestHandler(t *testing.T) (*Handler, *domain.Service) {
	t.Helper()
	repo := memory.NewRepository()
	service := domain.NewService(repo, security.NewBcryptHasher(), noopPublisher{}, nil)
	return NewHandler(service, testAuthCfg, 15*time.Minute), service
}

func seedUser(t *testing.T, service *domain.Service, username, role string) *domain.User {
	t.Helper()
	user, err := service.CreateUser(context.Background(), domain.CreateUserInput{
		Username: username,
		Password: "s3cret",
		Role:     role,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func withClaims(req *http.Request, username, role string) *http.Request {
	claims := &auth.Claims{
		Subject:   username,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestLoginIssuesToken(t *testing.T) {
	handler, service := newTestHandler(t)
	seedUser(t, service, "popug", auth.RoleDev)

	body, _ := json.Marshal(LoginRequest{Username: "popug", Password: "s3cret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "bearer", resp.TokenType)

	claims, err := authlib.Parse(resp.AccessToken, authlib.Config(testAuthCfg))
	require.NoError(t, err)
	require.Equal(t, "popug", claims.Subject)
	require.Equal(t, auth.RoleDev, claims.Role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler, service := newTestHandler(t)
	seedUser(t, service, "popug", auth.RoleDev)

	body, _ := json.Marshal(LoginRequest{Username: "popug", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.login(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
}

func TestMeReturnsCurrentUser(t *testing.T) {
	handler, service := newTestHandler(t)
	user := seedUser(t, service, "popug", auth.RoleDev)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "popug", auth.RoleDev)
	rr := httptest.NewRecorder()
	handler.me(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var view UserView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	require.Equal(t, user.PubID, view.PubID)
	require.Equal(t, "popug", view.Username)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	handler, service := newTestHandler(t)
	seedUser(t, service, "popug", auth.RoleDev)

	body, _ := json.Marshal(CreateUserRequest{
		Username: "new-popug",
		Password: "s3cret",
		Role:     auth.RoleDev,
		Email:    "new@example.com",
	})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)), "popug", auth.RoleDev)
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateUserAsAdmin(t *testing.T) {
	handler, service := newTestHandler(t)
	seedUser(t, service, "boss", auth.RoleAdmin)

	body, _ := json.Marshal(CreateUserRequest{
		Username: "new-popug",
		Password: "s3cret",
		Role:     auth.RoleDev,
		Email:    "new@example.com",
	})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)), "boss", auth.RoleAdmin)
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var view UserView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	require.NotEmpty(t, view.PubID)
	require.Equal(t, "new-popug", view.Username)
}

func TestGetUserNotFound(t *testing.T) {
	handler, service := newTestHandler(t)
	seedUser(t, service, "popug", auth.RoleDev)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/users/missing", nil), "popug", auth.RoleDev)
	rr := httptest.NewRecorder()
	handler.userByPubID(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestsWithoutClaimsAreUnauthorized(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
