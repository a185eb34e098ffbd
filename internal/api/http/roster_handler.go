// internal/api/http/roster_handler.go
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kitchen-dispatch/internal/domain"
	"kitchen-dispatch/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RosterReader is the read side of the dispatcher.
type RosterReader interface {
	Roster() []domain.WorkerInfo
	Staff(id domain.StaffID) (domain.WorkerInfo, bool)
}

// RosterHandler serves the on-duty roster as JSON.
type RosterHandler struct {
	roster RosterReader
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewRosterHandler creates a handler over roster.
func NewRosterHandler(roster RosterReader, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{
		roster: roster,
		logger: logger.With("component", "roster-handler"),
		tracer: otel.Tracer("kitchen-dispatch-api"),
		now:    time.Now,
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers roster routes to the http.ServeMux.
func (h *RosterHandler) RegisterRoutes(mux *http.ServeMux) {
	baseHandler := http.HandlerFunc(h.handleStaff)

	instrumentedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := "/staff/"
		if id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/staff"), "/"); id != "" {
			path = "/staff/{id}"
		}

		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		baseHandler.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})

	mux.Handle("/staff", instrumentedHandler)
	mux.Handle("/staff/", instrumentedHandler)
}

func (h *RosterHandler) handleStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Everything after /staff/ is the id; ids may contain an escaped slash.
	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.EscapedPath(), "/staff"), "/")
	if rest == "" {
		h.handleListStaff(w, r)
		return
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		http.Error(w, "invalid staff id", http.StatusBadRequest)
		return
	}
	h.handleGetStaff(w, r, domain.StaffID(id))
}

func (h *RosterHandler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.ListStaff")
	defer span.End()

	now := h.now()
	roster := h.roster.Roster()
	out := make([]StaffResponse, 0, len(roster))
	for _, info := range roster {
		out = append(out, toStaffResponse(info, now))
	}
	span.SetAttributes(attribute.Int("staff.count", len(out)))

	h.writeJSON(w, out)
}

func (h *RosterHandler) handleGetStaff(w http.ResponseWriter, r *http.Request, id domain.StaffID) {
	_, span := h.tracer.Start(r.Context(), "handler.GetStaff")
	defer span.End()
	span.SetAttributes(attribute.String("staff.id", string(id)))

	info, ok := h.roster.Staff(id)
	if !ok {
		http.Error(w, domain.ErrNotRegistered.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, toStaffResponse(info, h.now()))
}

func (h *RosterHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
