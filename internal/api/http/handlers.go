package apihttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parking-analytics/internal/audit"
	"parking-analytics/internal/auth"
	facility "parking-analytics/internal/facility/domain"
	"parking-analytics/internal/observability/metrics"
	"parking-analytics/internal/occupancy/domain/analytics"
)

const (
	timeLayout       = time.RFC3339
	defaultListLimit = 500
	maxListLimit     = 5000
	maxIngestBatch   = 1000
)

// EventReader loads occupancy events.
type EventReader interface {
	ListOccupancyEvents(ctx context.Context, filter analytics.EventFilter) ([]analytics.OccupancyEvent, error)
}

// EventWriter records occupancy events sent by cameras.
type EventWriter interface {
	RecordOccupancyEvents(ctx context.Context, events []analytics.OccupancyEvent) (int, error)
}

// OccupancyEventsHandler serves occupancy event record queries.
type OccupancyEventsHandler struct {
	events  EventReader
	checker auth.LotOrganizationChecker
}

// NewOccupancyEventsHandler constructs an OccupancyEventsHandler.
func NewOccupancyEventsHandler(events EventReader, checker auth.LotOrganizationChecker) *OccupancyEventsHandler {
	return &OccupancyEventsHandler{events: events, checker: checker}
}

// ServeHTTP handles GET /api/v1/occupancy-events.
func (h *OccupancyEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.resolveFilter(w, r)
	if !ok {
		return
	}
	events, err := h.events.ListOccupancyEvents(r.Context(), filter)
	if err != nil {
		http.Error(w, "query occupancy events error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (h *OccupancyEventsHandler) resolveFilter(w http.ResponseWriter, r *http.Request) (analytics.EventFilter, bool) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return analytics.EventFilter{}, false
	}
	if h == nil || h.events == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return analytics.EventFilter{}, false
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return analytics.EventFilter{}, false
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return analytics.EventFilter{}, false
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return analytics.EventFilter{}, false
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return analytics.EventFilter{}, false
	}

	organizationID := auth.OrganizationIDFromContext(r.Context())
	facilityID := r.URL.Query().Get("facility_id")
	if !EnsureLotAccess(w, r, h.checker, organizationID, facilityID) {
		return analytics.EventFilter{}, false
	}
	return analytics.EventFilter{
		OrganizationID: organizationID,
		FacilityID:     facilityID,
		From:           from,
		To:             to,
		Limit:          limit,
	}, true
}

// ExportOccupancyEventsCSVHandler serves occupancy event CSV exports.
type ExportOccupancyEventsCSVHandler struct {
	list        *OccupancyEventsHandler
	auditLogger audit.Logger
	loc         *time.Location
}

// NewExportOccupancyEventsCSVHandler constructs an ExportOccupancyEventsCSVHandler.
// The weekday column is computed in loc, the analytics timezone; nil means UTC.
func NewExportOccupancyEventsCSVHandler(events EventReader, checker auth.LotOrganizationChecker, auditLogger audit.Logger, loc *time.Location) *ExportOccupancyEventsCSVHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportOccupancyEventsCSVHandler{list: NewOccupancyEventsHandler(events, checker), auditLogger: auditLogger, loc: loc}
}

// ServeHTTP handles GET /api/v1/exports/occupancy-events.csv.
func (h *ExportOccupancyEventsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	filter, ok := h.list.resolveFilter(w, r)
	if !ok {
		return
	}
	events, err := h.list.events.ListOccupancyEvents(r.Context(), filter)
	if err != nil {
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
		http.Error(w, "query occupancy events error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="occupancy-events.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id",
		"facility_id",
		"entry_time",
		"weekday",
		"is_permitted",
	})
	for _, evt := range events {
		_ = writer.Write([]string{
			strconv.FormatInt(evt.ID, 10),
			evt.FacilityID,
			formatTime(evt.EntryTime),
			evt.EntryTime.In(h.loc).Weekday().String()[:3],
			formatPermit(evt.IsPermitted),
		})
	}
	writer.Flush()
	metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))

	if filter.OrganizationID != "" {
		entry := audit.FromRequest(r, audit.Identity{
			OrganizationID: filter.OrganizationID,
			Actor:          auth.SubjectFromContext(r.Context()),
			Role:           string(auth.RoleFromContext(r.Context())),
		}, audit.ActionExportEvents, "parking_lot", filter.FacilityID, map[string]any{
			"from": formatTime(filter.From),
			"to":   formatTime(filter.To),
			"rows": len(events),
		})
		if err := audit.Record(r.Context(), h.auditLogger, entry); err != nil {
			log.Printf("audit csv export: %v", err)
		}
	}
}

// LotsHandler lists the parking lots of the caller's organization.
type LotsHandler struct {
	lots facility.LotRepository
}

// NewLotsHandler constructs a LotsHandler.
func NewLotsHandler(lots facility.LotRepository) *LotsHandler {
	return &LotsHandler{lots: lots}
}

type lotView struct {
	facility.ParkingLot
	OccupancyRate float64 `json:"occupancy_rate"`
}

// ServeHTTP handles GET /api/v1/lots.
func (h *LotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.lots == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	lots, err := h.lots.ListByOrganization(r.Context(), auth.OrganizationIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "query lots error", http.StatusInternalServerError)
		return
	}
	views := make([]lotView, 0, len(lots))
	for _, lot := range lots {
		views = append(views, lotView{ParkingLot: lot, OccupancyRate: lot.OccupancyRate()})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// IngestHandler records occupancy events pushed by entrance cameras.
type IngestHandler struct {
	writer EventWriter
	logger *log.Logger
}

// NewIngestHandler constructs an IngestHandler.
func NewIngestHandler(writer EventWriter, logger *log.Logger) *IngestHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{writer: writer, logger: logger}
}

type ingestEvent struct {
	FacilityID  string `json:"facility_id"`
	EntryTime   string `json:"entry_time"`
	IsPermitted *bool  `json:"is_permitted"`
}

type ingestRequest struct {
	Events []ingestEvent `json:"events"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// ServeHTTP handles POST /api/v1/ingest/occupancy-events.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.writer == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Events) == 0 {
		http.Error(w, "events are required", http.StatusBadRequest)
		return
	}
	if len(req.Events) > maxIngestBatch {
		http.Error(w, "too many events", http.StatusRequestEntityTooLarge)
		return
	}

	events := make([]analytics.OccupancyEvent, 0, len(req.Events))
	rejected := 0
	for _, item := range req.Events {
		facilityID := strings.TrimSpace(item.FacilityID)
		at, err := time.Parse(timeLayout, item.EntryTime)
		if facilityID == "" || err != nil {
			rejected++
			continue
		}
		events = append(events, analytics.OccupancyEvent{
			FacilityID:  facilityID,
			EntryTime:   at.UTC(),
			IsPermitted: item.IsPermitted,
		})
	}
	metrics.AddRecordsRejected("ingest", rejected)

	accepted := 0
	if len(events) > 0 {
		n, err := h.writer.RecordOccupancyEvents(r.Context(), events)
		if err != nil {
			h.logger.Printf("ingest occupancy events: %v", err)
			http.Error(w, "record occupancy events error", http.StatusInternalServerError)
			return
		}
		accepted = n
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ingestResponse{Accepted: accepted, Rejected: rejected})
}

// EnsureLotAccess writes an error response and returns false when the caller's
// organization may not read the lot.
func EnsureLotAccess(w http.ResponseWriter, r *http.Request, checker auth.LotOrganizationChecker, organizationID, lotID string) bool {
	if checker == nil || lotID == "" {
		return true
	}
	err := checker.EnsureLotOrganization(r.Context(), organizationID, lotID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "parking lot not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOrganizationMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "lot lookup error", http.StatusInternalServerError)
	}
	return false
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}

func parseLimit(r *http.Request) (int, error) {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatPermit(value *bool) string {
	if value == nil {
		return ""
	}
	return strconv.FormatBool(*value)
}
