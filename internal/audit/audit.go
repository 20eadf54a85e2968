package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionExportWeekly = "analytics.weekly.export"
	ActionExportEvents = "occupancy_events.export"
)

// Entry represents an audit log entry.
type Entry struct {
	ID             string
	OrganizationID string
	Actor          string
	Role           string
	Action         string
	ResourceType   string
	ResourceID     string
	Metadata       json.RawMessage
	PayloadDigest  string
	IP             string
	UserAgent      string
	CreatedAt      time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Prepare fills the id, timestamp and digest of an entry when they are unset.
func Prepare(entry Entry, now time.Time) Entry {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now.UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	return entry
}
