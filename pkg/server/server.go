// Package server exposes the explorer as a read-only JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/explore"
	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// ErrBadParam is returned for a malformed query parameter.
var ErrBadParam = errors.New("bad query parameter")

const shutdownTimeout = 10 * time.Second

// Deps holds the dependencies of the HTTP handler.
type Deps struct {
	Explorer *explore.Explorer
	Tracer   trace.Tracer
	RED      *observability.REDMetrics
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// FlowResponse is the /api/flow body. Message is set for the
// select-more-variables sentinel.
type FlowResponse struct {
	flow.Result

	Message string `json:"message,omitempty"`
}

// YearsResponse is the /api/years body.
type YearsResponse struct {
	First int  `json:"first"`
	Last  int  `json:"last"`
	Empty bool `json:"empty"`
}

// LabelsResponse is the /api/labels body.
type LabelsResponse struct {
	Column string   `json:"column"`
	Labels []string `json:"labels"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	explorer *explore.Explorer
	logger   *slog.Logger
}

// NewHandler returns the API mux wrapped in tracing and RED middleware.
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{explorer: deps.Explorer, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/flow", h.flow)
	mux.HandleFunc("GET /api/histogram", h.histogram)
	mux.HandleFunc("GET /api/regions", h.regions)
	mux.HandleFunc("GET /api/map", h.regionMap)
	mux.HandleFunc("GET /api/labels", h.labels)
	mux.HandleFunc("GET /api/years", h.years)
	mux.HandleFunc("GET /healthz", h.health)

	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("flowlens")
	}

	return observability.HTTPMiddleware(tracer, deps.RED, mux)
}

func (h *handler) flow(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	result, err := h.explorer.Flow(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	h.writeJSON(w, r, http.StatusOK, FlowResponse{Result: result, Message: result.Message()})
}

func (h *handler) histogram(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	series, err := h.explorer.Histogram(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	h.writeJSON(w, r, http.StatusOK, series)
}

func (h *handler) regions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	totals, err := h.explorer.RegionTotals(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	h.writeJSON(w, r, http.StatusOK, totals)
}

func (h *handler) regionMap(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	m, err := h.explorer.Map(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	h.writeJSON(w, r, http.StatusOK, m)
}

func (h *handler) labels(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		h.fail(w, r, fmt.Errorf("%w: column is required", ErrBadParam))

		return
	}

	labels, err := h.explorer.Labels(column)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	if labels == nil {
		labels = []string{}
	}

	h.writeJSON(w, r, http.StatusOK, LabelsResponse{Column: column, Labels: labels})
}

func (h *handler) years(w http.ResponseWriter, r *http.Request) {
	first, last, ok := h.explorer.Years()
	h.writeJSON(w, r, http.StatusOK, YearsResponse{First: first, Last: last, Empty: !ok})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Records: h.explorer.Set().Len()})
}

// parseQuery reads columns, year_start, year_end and regions. A present but
// empty columns parameter is an explicit empty selection, not the default.
func parseQuery(r *http.Request) (explore.Query, error) {
	values := r.URL.Query()

	var q explore.Query

	if values.Has("columns") {
		q.Columns = splitList(values.Get("columns"))
	}

	if values.Has("regions") {
		q.Regions = splitList(values.Get("regions"))
	}

	var err error

	q.YearStart, err = intParam(values.Get("year_start"), "year_start")
	if err != nil {
		return explore.Query{}, err
	}

	q.YearEnd, err = intParam(values.Get("year_end"), "year_end")
	if err != nil {
		return explore.Query{}, err
	}

	return q, nil
}

func splitList(raw string) []string {
	out := []string{}

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadParam, name, raw)
	}

	return n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadParam),
		errors.Is(err, filter.ErrInvalidYearRange),
		errors.Is(err, aggregate.ErrMissingColumn),
		errors.Is(err, histogram.ErrMissingColumn),
		errors.Is(err, record.ErrUnknownColumn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes value before writing the header so an unencodable body
// becomes a 500 instead of a truncated 200.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, value any) {
	var buf bytes.Buffer

	encodeErr := json.NewEncoder(&buf).Encode(value)
	if encodeErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode JSON response", "path", r.URL.Path, "error", encodeErr)

		status = http.StatusInternalServerError

		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, writeErr := w.Write(buf.Bytes())
	if writeErr != nil {
		h.logger.DebugContext(r.Context(), "failed to write response", "error", writeErr)
	}
}

// Options holds the listener settings for Run.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Run serves handler until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, opts Options, handler http.Handler, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}

	return Serve(ctx, listener, opts, handler, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, listener net.Listener, opts Options, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.InfoContext(ctx, "http server listening", "addr", listener.Addr().String())

		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", serveErr)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		logger.Info("http server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		shutdownErr := srv.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}

		return nil
	})

	return group.Wait()
}
