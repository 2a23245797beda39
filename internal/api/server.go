// Package api exposes the plotting pipeline over HTTP.
//
// The server holds one loaded dataset and renders phase-portrait figures on
// demand, caching finished artifacts by dataset hash and plot options. It is
// meant to sit behind a notebook or a lab dashboard, not the public internet:
// there is no authentication layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velopane/velopane/pkg/cache"
	"github.com/velopane/velopane/pkg/dataset"
	"github.com/velopane/velopane/pkg/render"
	"github.com/velopane/velopane/pkg/stats"
	"github.com/velopane/velopane/pkg/velocity"
)

// artifactTTL bounds how long rendered figures stay cached server-side.
const artifactTTL = 24 * time.Hour

// shutdownTimeout bounds graceful shutdown on context cancellation.
const shutdownTimeout = 10 * time.Second

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
	"pdf": "application/pdf",
}

// =============================================================================
// Server
// =============================================================================

// Server serves plots from a single loaded dataset.
type Server struct {
	logger *log.Logger
	ds     *dataset.Dataset
	dsHash string
	store  cache.Cache
}

// New creates a server over the given dataset. dsHash is the dataset content
// hash used for artifact cache keys.
func New(logger *log.Logger, ds *dataset.Dataset, dsHash string, store cache.Cache) *Server {
	return &Server{logger: logger, ds: ds, dsHash: dsHash, store: store}
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/genes", s.handleGenes)
	r.Get("/plot", s.handlePlot)

	return r
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// Middleware
// =============================================================================

type contextKey string

// requestIDKey carries the per-request identifier through the context.
const requestIDKey contextKey = "request_id"

// requestID assigns every request a UUID and echoes it back in the
// X-Request-ID header. Client-provided identifiers are preserved.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// logRequests logs method, path, status, and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", r.Context().Value(requestIDKey),
		)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cells":  s.ds.NumCells(),
		"genes":  s.ds.NumGenes(),
	})
}

// handleGenes lists gene names, optionally filtered by the q query parameter
// (case-insensitive substring).
func (s *Server) handleGenes(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	genes := s.ds.GeneNames
	if q != "" {
		filtered := make([]string, 0, len(genes))
		for _, g := range genes {
			if strings.Contains(strings.ToLower(g), q) {
				filtered = append(filtered, g)
			}
		}
		genes = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"genes": genes})
}

// handlePlot renders a figure for the query parameters, serving from the
// artifact cache when possible.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	req, err := parsePlotRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := cache.ArtifactKey(s.dsHash, req.keyOpts())
	if data, ok, err := s.store.Get(r.Context(), key); err == nil && ok {
		serveArtifact(w, req.Format, data)
		return
	}

	data, err := s.renderPlot(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, velocity.ErrNoSelection) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	if err := s.store.Set(r.Context(), key, data, artifactTTL); err != nil {
		s.logger.Warn("cache store failed", "err", err)
	}
	serveArtifact(w, req.Format, data)
}

// renderPlot runs the pipeline and converts to the requested format.
func (s *Server) renderPlot(req *plotRequest) ([]byte, error) {
	artifact, err := velocity.RenderPanels(s.ds, render.NewSVGRenderer(), req.Options)
	if err != nil {
		return nil, err
	}
	switch req.Format {
	case "png":
		return render.ToPNG(artifact, req.Options.DPI/velocity.DefaultDPI)
	case "pdf":
		return render.ToPDF(artifact)
	}
	return artifact, nil
}

// =============================================================================
// Request Parsing
// =============================================================================

// plotRequest is the parsed form of a /plot query.
type plotRequest struct {
	Format  string
	CMaps   [2]string
	Options velocity.Options
}

// parsePlotRequest translates query parameters into render options.
func parsePlotRequest(r *http.Request) (*plotRequest, error) {
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	if _, ok := contentTypes[format]; !ok {
		return nil, fmt.Errorf("invalid format %q", format)
	}

	opts := velocity.DefaultOptions()
	opts.Genes = splitParam(q.Get("genes"))
	opts.GroupBy = q.Get("groupby")
	opts.Groups = splitParam(q.Get("groups"))
	opts.Basis = q.Get("basis")
	opts.Color = q.Get("color")
	opts.Layers = splitParam(q.Get("layers"))
	opts.Fits = splitParam(q.Get("fits"))
	opts.Stochastic = q.Get("stochastic") == "true"
	opts.Ranker = stats.NewRanker()
	opts.Moments = stats.NewMomentEstimator()

	if vkey := q.Get("vkey"); vkey != "" {
		opts.VKey = vkey
	}
	if ncols := q.Get("ncols"); ncols != "" {
		n, err := strconv.Atoi(ncols)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid ncols %q", ncols)
		}
		opts.NCols = n
	}
	if dpi := q.Get("dpi"); dpi != "" {
		d, err := strconv.ParseFloat(dpi, 64)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid dpi %q", dpi)
		}
		opts.DPI = d
	}

	cmaps := [2]string{"RdYlGn", "gnuplot_r"}
	if cmap := q.Get("cmap"); cmap != "" {
		opts.ColorMap = velocity.SingleColorMap(cmap)
		cmaps = [2]string{cmap, cmap}
	}

	if len(opts.Genes) == 0 && opts.GroupBy == "" {
		return nil, fmt.Errorf("no selection: pass genes or groupby")
	}
	return &plotRequest{Format: format, CMaps: cmaps, Options: opts}, nil
}

// keyOpts collects the option fields that change the artifact bytes.
func (p *plotRequest) keyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     p.Format,
		Genes:      p.Options.Genes,
		GroupBy:    p.Options.GroupBy,
		Groups:     p.Options.Groups,
		Basis:      p.Options.Basis,
		VKey:       p.Options.VKey,
		Layers:     p.Options.Layers,
		Fits:       p.Options.Fits,
		Stochastic: p.Options.Stochastic,
		Color:      p.Options.Color,
		ColorMaps:  p.CMaps,
		Perc:       p.Options.Perc,
		NCols:      p.Options.NCols,
		DPI:        p.Options.DPI,
	}
}

// splitParam splits a comma-separated query parameter, nil when empty.
func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// =============================================================================
// Response Helpers
// =============================================================================

func serveArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
