// Package daemon implements the local HTTP API server. It exposes the
// current profile, the catalog, a switch endpoint, a websocket event
// stream, and Prometheus metrics, and it keeps the coordinator reconciled
// against external catalog edits while running.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/profilectl/internal/catalog"
	"github.com/tonimelisma/profilectl/internal/journal"
	"github.com/tonimelisma/profilectl/internal/profile"
)

// Server timeouts. ReadHeaderTimeout is used instead of ReadTimeout so the
// connection deadline does not outlive the websocket upgrade on /v1/events.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	requestTimeout    = 30 * time.Second
	shutdownTimeout   = 10 * time.Second
	wsWriteTimeout    = 5 * time.Second
	journalTimeout    = 5 * time.Second
)

// History endpoint limits.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// outcomeNoOp is the metrics label for switch requests that targeted the
// profile that was already current. The journal never records these.
const outcomeNoOp = "noop"

// ServerConfig carries construction parameters for NewServer.
type ServerConfig struct {
	// Coordinator holds the current profile. Required.
	Coordinator *profile.Coordinator

	// Store is the profile catalog. Required.
	Store *catalog.Store

	// Journal records switch history. Optional; when nil, history is not
	// recorded and /v1/history serves an empty list.
	Journal *journal.Journal

	// Logger receives server logging. Required.
	Logger *slog.Logger

	// Listen is the host:port the server binds to.
	Listen string

	// EventBuffer is the per-subscriber event channel capacity.
	EventBuffer int

	// WatchDebounce and RescanInterval tune the catalog watcher.
	WatchDebounce  time.Duration
	RescanInterval time.Duration
}

// Server serves the local API and owns the daemon-side listeners: catalog
// reconciliation, event broadcast, and journal recording.
type Server struct {
	logger  *slog.Logger
	coord   *profile.Coordinator
	store   *catalog.Store
	journal *journal.Journal
	metrics *Metrics
	hub     *hub

	listen   string
	debounce time.Duration
	rescan   time.Duration

	// switchMu serializes switches; the coordinator requires callers to
	// never overlap Switch invocations.
	switchMu sync.Mutex
}

// NewServer wires a Server and registers its update listener on the
// coordinator. Switch listeners (workspace handling and the like) are the
// caller's responsibility and must be registered before Run.
func NewServer(cfg ServerConfig) *Server {
	metrics := NewMetrics()

	s := &Server{
		logger:   cfg.Logger,
		coord:    cfg.Coordinator,
		store:    cfg.Store,
		journal:  cfg.Journal,
		metrics:  metrics,
		hub:      newHub(cfg.Logger, cfg.EventBuffer, metrics),
		listen:   cfg.Listen,
		debounce: cfg.WatchDebounce,
		rescan:   cfg.RescanInterval,
	}

	s.coord.OnUpdate(func() {
		current := s.coord.Current()

		s.metrics.reconcilesTotal.Inc()
		s.hub.broadcast(Event{Type: EventUpdate, Profile: current, At: time.Now().UTC()})
		s.recordUpdate(current)
	})

	return s
}

// Run serves the API and watches the catalog until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	watcher := catalog.NewWatcher(catalog.WatcherConfig{
		Store:    s.store,
		Logger:   s.logger,
		Debounce: s.debounce,
		Rescan:   s.rescan,
		Notify: func(changes profile.ChangeSet, profiles []profile.Profile) {
			s.onCatalogChange(ctx, changes, profiles)
		},
	})

	g.Go(func() error {
		if err := watcher.Watch(ctx); err != nil {
			return fmt.Errorf("daemon: catalog watcher: %w", err)
		}

		return nil
	})

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		s.logger.Info("daemon listening", slog.String("addr", s.listen))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon: serving: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("daemon: shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}

// router assembles the chi routes. Split out so tests can drive the API
// through httptest without binding a port.
func (s *Server) router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// The event stream is long-lived, so it stays outside the timeout group.
	r.Get("/v1/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/v1/current", s.handleCurrent)
		r.Get("/v1/profiles", s.handleProfiles)
		r.Post("/v1/switch", s.handleSwitch)
		r.Get("/v1/history", s.handleHistory)
	})

	return r
}

// requestLogger logs one debug line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type profilesResponse struct {
	Current  string            `json:"current"`
	Profiles []profile.Profile `json:"profiles"`
}

type switchRequest struct {
	Profile      string `json:"profile"`
	PreserveData bool   `json:"preserve_data"`
	Transient    bool   `json:"transient"`
}

type switchResponse struct {
	Current  profile.Profile  `json:"current"`
	Previous *profile.Profile `json:"previous,omitempty"`
	NoOp     bool             `json:"no_op,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type historyResponse struct {
	Entries []journal.Entry `json:"entries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coord.Current())
}

func (s *Server) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles, err := s.store.Load()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, profilesResponse{
		Current:  s.coord.Current().ID,
		Profiles: profiles,
	})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())

		return
	}

	if req.Profile == "" {
		s.writeError(w, http.StatusBadRequest, "profile is required")

		return
	}

	target, err := s.resolveTarget(req)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())

			return
		}

		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	// The switch must settle even if the client goes away; the commit is
	// already visible to the rest of the process.
	previous, noOp, err := s.performSwitch(context.WithoutCancel(r.Context()), target, req.PreserveData)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, switchResponse{
			Current:  s.coord.Current(),
			Previous: &previous,
			Error:    err.Error(),
		})

		return
	}

	s.writeJSON(w, http.StatusOK, switchResponse{
		Current:  s.coord.Current(),
		Previous: &previous,
		NoOp:     noOp,
	})
}

// resolveTarget maps a switch request to a concrete profile. Transient
// requests mint a profile that exists only in memory; everything else is
// resolved against the catalog by id or name.
func (s *Server) resolveTarget(req switchRequest) (profile.Profile, error) {
	if req.Transient {
		return profile.Profile{
			ID:          uuid.NewString(),
			Name:        req.Profile,
			IsTransient: true,
			CreatedAt:   time.Now().UTC(),
		}, nil
	}

	return s.store.Find(req.Profile)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")

			return
		}

		limit = min(parsed, maxHistoryLimit)
	}

	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, historyResponse{Entries: []journal.Entry{}})

		return
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// handleEvents upgrades to a websocket and streams hub events until the
// client disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", slog.Any("error", err))

		return
	}
	defer c.Close(websocket.StatusInternalError, "stream closed")

	ch, cancel := s.hub.subscribe()
	defer cancel()

	// CloseRead handles control frames and cancels the context when the
	// client disconnects; this stream never reads data messages.
	ctx := c.CloseRead(r.Context())

	s.logger.Debug("event subscriber connected")

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")

			return
		case data := <-ch:
			writeCtx, cancelWrite := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()

			if err != nil {
				s.logger.Debug("event subscriber write failed", slog.Any("error", err))

				return
			}
		}
	}
}

// performSwitch serializes and executes one switch, then records it in the
// journal, the metrics, and the event stream. A failed switch still commits
// the target; the error covers the joined tasks only.
func (s *Server) performSwitch(ctx context.Context, target profile.Profile, preserveData bool) (profile.Profile, bool, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	previous := s.coord.Current()
	if previous.ID == target.ID {
		s.metrics.switchesTotal.WithLabelValues(outcomeNoOp).Inc()

		return previous, true, nil
	}

	start := time.Now()
	err := s.coord.Switch(ctx, target, preserveData)
	elapsed := time.Since(start)

	outcome := journal.OutcomeOK
	detail := ""

	if err != nil {
		outcome = journal.OutcomeFailed
		detail = err.Error()
	}

	s.metrics.ObserveSwitch(outcome, elapsed)
	s.recordSwitch(previous, target, outcome, detail)
	s.hub.broadcast(Event{
		Type:     EventSwitch,
		Profile:  s.coord.Current(),
		Previous: &previous,
		At:       time.Now().UTC(),
	})

	return previous, false, err
}

// onCatalogChange reconciles every batch and falls back to the default
// profile when the current one disappears from the catalog.
func (s *Server) onCatalogChange(ctx context.Context, changes profile.ChangeSet, profiles []profile.Profile) {
	s.metrics.catalogBatchesTotal.Inc()
	s.coord.Reconcile(changes)

	current := s.coord.Current()
	if !slices.Contains(changes.Removed, current.ID) {
		return
	}

	fallback, ok := defaultProfile(profiles)
	if !ok {
		s.logger.Error("current profile removed and catalog has no default",
			slog.String("id", current.ID))

		return
	}

	s.logger.Warn("current profile removed from catalog, switching to default",
		slog.String("removed", current.Name),
		slog.String("default", fallback.Name),
	)

	if _, _, err := s.performSwitch(ctx, fallback, false); err != nil {
		s.logger.Error("fallback switch failed", slog.Any("error", err))
	}
}

func defaultProfile(profiles []profile.Profile) (profile.Profile, bool) {
	for _, p := range profiles {
		if p.IsDefault {
			return p, true
		}
	}

	return profile.Profile{}, false
}

func (s *Server) recordSwitch(previous, target profile.Profile, outcome, detail string) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := s.journal.RecordSwitch(ctx, previous, target, outcome, detail); err != nil {
		s.logger.Error("recording switch", slog.Any("error", err))
	}
}

func (s *Server) recordUpdate(current profile.Profile) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := s.journal.RecordUpdate(ctx, current); err != nil {
		s.logger.Error("recording update", slog.Any("error", err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
