// Package server exposes the translation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ZaguanLabs/pagetl"
	"github.com/ZaguanLabs/pagetl/processor"
)

// Stats headers set on every translated response.
const (
	HeaderTotal      = "X-Pagetl-Total"
	HeaderTranslated = "X-Pagetl-Translated"
	HeaderCached     = "X-Pagetl-Cached"
	HeaderFailed     = "X-Pagetl-Failed"
)

// Config configures a Server.
type Config struct {
	Addr         string
	Provider     pagetl.AIProvider
	Options      []pagetl.Option // shared by every request
	DefaultLang  string          // used when ?lang= is absent
	MaxBodyBytes int64           // default: 5 MiB
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server translates HTML documents posted to it. Each request gets its own
// translator; the provider and translation memory are shared.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router *chi.Mux
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	cfg.Options = append([]pagetl.Option{pagetl.WithProcessor(processor.NewHTMLProcessor())}, cfg.Options...)

	s := &Server{cfg: cfg, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/translate", s.handleTranslate)
		r.Post("/scan", s.handleScan)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("pagetl: serving", "addr", s.cfg.Addr, "version", pagetl.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("pagetl: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"name":    pagetl.Name,
		"version": pagetl.FullVersion(),
	})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.cfg.DefaultLang
	}
	if lang == "" {
		writeError(w, http.StatusBadRequest, errors.New("lang query parameter is required"))
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	tr := s.translator(lang, r.URL.Query().Get("source"))
	res, err := tr.ProcessHTML(r.Context(), body)
	if err != nil {
		s.logger.Warn("pagetl: translate failed",
			"lang", lang, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Language", pagetl.ToHTMLLang(lang))
	h.Set(HeaderTotal, strconv.Itoa(res.TotalNodes))
	h.Set(HeaderTranslated, strconv.Itoa(res.TranslatedCount))
	h.Set(HeaderCached, strconv.Itoa(res.CachedCount))
	h.Set(HeaderFailed, strconv.Itoa(res.FailedCount))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res.Content)
}

// ScanItem is one entry of a /v1/scan response.
type ScanItem struct {
	Kind    string `json:"kind"`
	Attr    string `json:"attr,omitempty"`
	Content string `json:"content"`
	Depth   int    `json:"depth"`
}

// ScanResponse is the /v1/scan response body.
type ScanResponse struct {
	Count int        `json:"count"`
	Items []ScanItem `json:"items"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.cfg.DefaultLang
	}
	items, err := s.translator(lang, r.URL.Query().Get("source")).DryRun(body, "html")
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := ScanResponse{Count: len(items), Items: make([]ScanItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ScanItem{
			Kind:    it.Kind.String(),
			Attr:    it.Origin.Attr,
			Content: it.Content,
			Depth:   it.Depth,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) translator(lang, source string) *pagetl.Translator {
	opts := s.cfg.Options
	if source != "" {
		opts = append(append([]pagetl.Option(nil), opts...), pagetl.WithSourceLang(source))
	}
	return pagetl.NewTranslator(lang, s.cfg.Provider, opts...)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return "", false
	}
	return string(data), true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		procErr  *pagetl.ProcessorError
		batchErr *pagetl.BatchError
	)
	switch {
	case errors.As(err, &procErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &batchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("pagetl: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
