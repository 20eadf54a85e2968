package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// Identity is the caller recorded with an entry.
type Identity struct {
	OrganizationID string
	Actor          string
	Role           string
}

// FromRequest builds an entry for an HTTP request, encoding meta as the entry metadata.
func FromRequest(r *http.Request, who Identity, action, resourceType, resourceID string, meta map[string]any) Entry {
	payload, _ := json.Marshal(meta)
	return Entry{
		OrganizationID: who.OrganizationID,
		Actor:          who.Actor,
		Role:           who.Role,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       payload,
		IP:             ClientIP(r),
		UserAgent:      r.UserAgent(),
	}
}

// Record writes entry when a logger is configured. Failures are returned for logging only.
func Record(ctx context.Context, logger Logger, entry Entry) error {
	if logger == nil {
		return nil
	}
	return logger.Log(ctx, entry)
}

// ClientIP extracts client ip from common headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
