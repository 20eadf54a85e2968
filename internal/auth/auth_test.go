package auth

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facility "parking-analytics/internal/facility/domain"
	"parking-analytics/internal/facility/infrastructure/memory"
)

func TestParseJWT(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueJWT(secret, "org-a", RoleManager, "user-7", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "org-a", claims.OrganizationID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "user-7", claims.Subject)

	_, err = ParseJWT(token, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWT("", secret)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = IssueJWT(secret, "org-a", Role("root"), "user-7", time.Hour)
	assert.Error(t, err)
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAtLeast(RoleAdmin, RoleManager))
	assert.True(t, RoleAtLeast(RoleManager, RoleManager))
	assert.False(t, RoleAtLeast(RoleViewer, RoleManager))
	assert.False(t, RoleAtLeast(Role(""), RoleViewer))

	role, ok := NormalizeRole(" Manager ")
	require.True(t, ok)
	assert.Equal(t, RoleManager, role)
	_, ok = NormalizeRole("operator")
	assert.False(t, ok)
	assert.True(t, RoleAdmin.Unscoped())
	assert.False(t, RoleManager.Unscoped())
}

func TestLotChecker(t *testing.T) {
	repo := memory.NewLotRepository(
		facility.ParkingLot{ID: "lot-1", OrganizationID: "org-a", Name: "North"},
	)
	checker := NewLotChecker(repo)
	ctx := context.Background()

	assert.NoError(t, checker.EnsureLotOrganization(ctx, "org-a", "lot-1"))
	assert.ErrorIs(t, checker.EnsureLotOrganization(ctx, "org-b", "lot-1"), ErrOrganizationMismatch)
	assert.ErrorIs(t, checker.EnsureLotOrganization(ctx, "org-a", "lot-9"), ErrNotFound)
	assert.NoError(t, checker.EnsureLotOrganization(ctx, "", "lot-9"))

	var nilChecker *LotChecker
	assert.NoError(t, nilChecker.EnsureLotOrganization(ctx, "org-a", "lot-1"))
}

func TestCameraAuthMiddleware(t *testing.T) {
	secret := []byte("camera-secret")
	mw := NewCameraAuthMiddleware(secret, time.Minute)
	var received []byte
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))

	body := []byte(`{"facility_id":"lot-1"}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/occupancy-events", bytes.NewReader(body))
	req.Header.Set(HeaderCameraTimestamp, ts)
	req.Header.Set(HeaderCameraSignature, SignCameraPayload(secret, ts, body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.Equal(t, body, received)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/occupancy-events", bytes.NewReader(body))
	req.Header.Set(HeaderCameraTimestamp, ts)
	req.Header.Set(HeaderCameraSignature, SignCameraPayload([]byte("wrong"), ts, body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/occupancy-events", bytes.NewReader(body))
	req.Header.Set(HeaderCameraTimestamp, stale)
	req.Header.Set(HeaderCameraSignature, SignCameraPayload(secret, stale, body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCameraAuthMiddleware_BodyLimit(t *testing.T) {
	secret := []byte("camera-secret")
	mw := NewCameraAuthMiddleware(secret, time.Minute)
	mw.MaxBodyBytes = 64
	called := false
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	body := bytes.Repeat([]byte("x"), 200)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/occupancy-events", bytes.NewReader(body))
	req.Header.Set(HeaderCameraTimestamp, ts)
	req.Header.Set(HeaderCameraSignature, SignCameraPayload(secret, ts, body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.False(t, called)
	assert.Equal(t, DefaultCameraMaxBodyBytes, NewCameraAuthMiddleware(secret, 0).MaxBodyBytes)
}

func TestContextDefaults(t *testing.T) {
	assert.Empty(t, OrganizationIDFromContext(context.Background()))
	assert.Empty(t, RoleFromContext(context.Background()))
	ctx := WithIdentity(context.Background(), "org-a", RoleAdmin, "user-1")
	assert.Equal(t, "user-1", SubjectFromContext(ctx))
}
