package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderCameraTimestamp = "X-Camera-Timestamp"
	HeaderCameraSignature = "X-Camera-Signature"

	// DefaultCameraMaxBodyBytes fits a full batch of 1000 events.
	DefaultCameraMaxBodyBytes int64 = 1 << 20
)

// CameraAuthMiddleware validates HMAC signatures on camera event uploads.
type CameraAuthMiddleware struct {
	Secret       []byte
	MaxSkew      time.Duration
	MaxBodyBytes int64
}

// NewCameraAuthMiddleware constructs camera auth middleware.
func NewCameraAuthMiddleware(secret []byte, maxSkew time.Duration) *CameraAuthMiddleware {
	return &CameraAuthMiddleware{Secret: secret, MaxSkew: maxSkew, MaxBodyBytes: DefaultCameraMaxBodyBytes}
}

// Wrap enforces signature validation.
func (m *CameraAuthMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.Secret) == 0 {
			http.Error(w, "camera auth not configured", http.StatusUnauthorized)
			return
		}
		timestamp := strings.TrimSpace(r.Header.Get(HeaderCameraTimestamp))
		signature := strings.TrimSpace(r.Header.Get(HeaderCameraSignature))
		if timestamp == "" || signature == "" {
			http.Error(w, "missing camera signature", http.StatusUnauthorized)
			return
		}
		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			http.Error(w, "invalid camera timestamp", http.StatusUnauthorized)
			return
		}
		skew := time.Since(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if m.MaxSkew > 0 && skew > m.MaxSkew {
			http.Error(w, "camera signature expired", http.StatusUnauthorized)
			return
		}

		limit := m.MaxBodyBytes
		if limit <= 0 {
			limit = DefaultCameraMaxBodyBytes
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "read body error", http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()

		expected := SignCameraPayload(m.Secret, timestamp, body)
		if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
			http.Error(w, "invalid camera signature", http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// SignCameraPayload returns the hex HMAC-SHA256 of timestamp and body.
func SignCameraPayload(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
