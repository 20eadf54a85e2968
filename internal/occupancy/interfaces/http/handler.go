package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parking-analytics/internal/audit"
	"parking-analytics/internal/auth"
	"parking-analytics/internal/observability/metrics"
	occupancyapp "parking-analytics/internal/occupancy/application"
	"parking-analytics/internal/occupancy/domain/analytics"
)

const (
	routePrefix = "/api/v1/analytics/"
	dateLayout  = "2006-01-02"
	maxWeeks    = 52
)

// Handler serves occupancy analytics endpoints.
type Handler struct {
	service     *occupancyapp.AnalyticsService
	lotChecker  auth.LotOrganizationChecker
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *occupancyapp.AnalyticsService, lotChecker auth.LotOrganizationChecker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("analytics handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, lotChecker: lotChecker, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP routes analytics requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, routePrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, routePrefix) {
	case "weekly":
		h.handleWeekly(w, r)
	case "expected":
		h.handleExpected(w, r)
	case "overview":
		h.handleOverview(w, r)
	case "membership-growth":
		h.handleGrowth(w, r)
	case "weeks":
		h.handleWeeks(w, r)
	case "weekly/export.xlsx":
		h.handleExport(w, r, "xlsx")
	case "weekly/export.pdf":
		h.handleExport(w, r, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleWeekly(w http.ResponseWriter, r *http.Request) {
	orgID, facilityID, ok := h.scope(w, r, "facility_id")
	if !ok {
		return
	}
	weekStart, err := h.parseDateQuery(r, "week_start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.WeeklyOccupancy(r.Context(), orgID, facilityID, weekStart)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleExpected(w http.ResponseWriter, r *http.Request) {
	orgID, facilityID, ok := h.scope(w, r, "facility_id")
	if !ok {
		return
	}
	result, err := h.service.ExpectedOccupancy(r.Context(), orgID, facilityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	orgID, facilityID, ok := h.scope(w, r, "facility_id")
	if !ok {
		return
	}
	weekStart, err := h.parseDateQuery(r, "week_start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.Overview(r.Context(), orgID, facilityID, weekStart)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleGrowth(w http.ResponseWriter, r *http.Request) {
	orgID, lotID, ok := h.scope(w, r, "parking_lot_id")
	if !ok {
		return
	}
	start, err := h.parseDateQuery(r, "start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.MembershipGrowth(r.Context(), orgID, lotID, start)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleWeeks(w http.ResponseWriter, r *http.Request) {
	count := 0
	if value := r.URL.Query().Get("count"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 || parsed > maxWeeks {
			http.Error(w, fmt.Sprintf("count must be between 1 and %d", maxWeeks), http.StatusBadRequest)
			return
		}
		count = parsed
	}
	writeJSON(w, h.service.WeekOptions(count))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	started := time.Now()
	orgID, facilityID, ok := h.scope(w, r, "facility_id")
	if !ok {
		return
	}
	weekStart, err := h.parseDateQuery(r, "week_start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	overview, err := h.service.Overview(r.Context(), orgID, facilityID, weekStart)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		respondServiceError(w, err)
		return
	}

	report := Report{
		Title:       h.service.Config().ExportTitle,
		FacilityID:  facilityID,
		GeneratedAt: h.service.Now(),
		Overview:    overview,
	}
	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = BuildOccupancyPDF(report)
		contentType = "application/pdf"
	default:
		data, err = BuildOccupancyXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(started))

	filename := fmt.Sprintf("occupancy-%s.%s", overview.Weekly.WeekStart.Format(dateLayout), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
	h.logAudit(r, facilityID, map[string]any{
		"format":     format,
		"week_start": overview.Weekly.WeekStart.Format(dateLayout),
		"bytes":      len(data),
	})
}

func (h *Handler) logAudit(r *http.Request, facilityID string, meta map[string]any) {
	orgID := auth.OrganizationIDFromContext(r.Context())
	if h.auditLogger == nil || orgID == "" {
		return
	}
	entry := audit.FromRequest(r, audit.Identity{
		OrganizationID: orgID,
		Actor:          auth.SubjectFromContext(r.Context()),
		Role:           string(auth.RoleFromContext(r.Context())),
	}, audit.ActionExportWeekly, "parking_lot", facilityID, meta)
	if err := audit.Record(r.Context(), h.auditLogger, entry); err != nil {
		h.logger.Printf("audit export: %v", err)
	}
}

// scope resolves the caller's organization and the lot named by key,
// rejecting lots owned by another organization.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request, key string) (string, string, bool) {
	orgID := auth.OrganizationIDFromContext(r.Context())
	lotID := strings.TrimSpace(r.URL.Query().Get(key))
	if orgID == "" || lotID == "" || h.lotChecker == nil {
		return orgID, lotID, true
	}
	err := h.lotChecker.EnsureLotOrganization(r.Context(), orgID, lotID)
	switch {
	case err == nil:
		return orgID, lotID, true
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "parking lot not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOrganizationMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "lot lookup error", http.StatusInternalServerError)
	}
	return "", "", false
}

// parseDateQuery accepts RFC3339 or a calendar date in the configured timezone.
// A missing value yields the zero time.
func (h *Handler) parseDateQuery(r *http.Request, key string) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.In(h.service.Config().Location()), nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, h.service.Config().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", key)
	}
	return parsed, nil
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidWeekStart),
		errors.Is(err, analytics.ErrInvalidReferenceTime),
		errors.Is(err, analytics.ErrInvalidStartDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "analytics error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
