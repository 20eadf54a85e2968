package audit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrepareFillsDefaults(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	entry := Prepare(Entry{Action: ActionExportWeekly, Metadata: []byte(`{"format":"pdf"}`)}, now)

	assert.True(t, strings.HasPrefix(entry.ID, "audit-"))
	assert.Equal(t, now.UTC(), entry.CreatedAt)
	assert.Len(t, entry.PayloadDigest, 64)

	kept := Prepare(Entry{ID: "audit-1", PayloadDigest: "d"}, now)
	assert.Equal(t, "audit-1", kept.ID)
	assert.Equal(t, "d", kept.PayloadDigest)
	assert.Empty(t, DigestJSON(nil))
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/weekly/export.pdf", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "dashboard")

	entry := FromRequest(req, Identity{OrganizationID: "org-a", Actor: "user-1", Role: "manager"},
		ActionExportWeekly, "parking_lot", "lot-1", map[string]any{"format": "pdf"})
	assert.Equal(t, "203.0.113.7", entry.IP)
	assert.Equal(t, "dashboard", entry.UserAgent)
	assert.Equal(t, "org-a", entry.OrganizationID)
	assert.JSONEq(t, `{"format":"pdf"}`, string(entry.Metadata))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", " 198.51.100.2 ")
	assert.Equal(t, "198.51.100.2", ClientIP(req))
	assert.Empty(t, ClientIP(nil))
}
