// Package web serves the schedule views as JSON.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/parser"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/schedule"
	"github.com/intelliplan/planboard/internal/source"
)

// Server answers each request by driving the engine to the asked date and
// returning the view it rendered. Requests are serialized; the engine holds
// one navigation state.
type Server struct {
	mu     sync.Mutex
	engine *planner.Engine
	views  *planner.Snapshot
	logger *log.Logger
	mux    *http.ServeMux
}

func NewServer(engine *planner.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		engine: engine,
		views:  &planner.Snapshot{},
		logger: logger,
		mux:    http.NewServeMux(),
	}
	engine.SetPresenter(s.views)
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/tasks", s.handleTasks)
	s.mux.HandleFunc("GET /api/tasks/stats", s.handleTaskStats)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "listen", "http://"+addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// CatchUp applies a refresh trigger so the next response reflects it.
func (s *Server) CatchUp(ctx context.Context, t refresh.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Do(ctx, s.engine.CatchUp(t))
}

var errBusy = errors.New("a newer build replaced this one")

// show moves the engine to mode and the date in r's query, then renders.
// Callers hold s.mu.
func (s *Server) show(r *http.Request, mode navigation.Mode) error {
	iso, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		return err
	}
	s.engine.SetMode(mode)
	if !s.engine.Do(r.Context(), s.engine.SelectDate(iso)) {
		return errBusy
	}
	return nil
}

// resolveDate accepts an ISO date or any expression the date parser knows,
// relative to the engine's today. Empty means today.
func (s *Server) resolveDate(q string) (string, error) {
	today := s.engine.State().Today
	q = strings.TrimSpace(q)
	if q == "" {
		return today, nil
	}
	if _, err := dates.ParseISODate(q); err == nil {
		return q, nil
	}

	p := parser.NewDateParser()
	if t, err := dates.ParseISODate(today); err == nil {
		p.SetNow(t)
	}
	d, err := p.Parse(q)
	if err != nil {
		return "", err
	}
	return dates.ISODate(d), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.show(r, navigation.ModeDay); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.views.Day)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.show(r, navigation.ModeWeek); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.views.Week)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.show(r, navigation.ModeMonth); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.views.Month)
}

type statsResponse struct {
	Today string `json:"today"`
	Stats any    `json:"stats"`
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.show(r, navigation.ModeDay); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsResponse{Today: s.views.Day.State.Today, Stats: s.views.Day.Stats})
}

type tasksResponse struct {
	Today    string        `json:"today"`
	Subjects []string      `json:"subjects"`
	Tasks    []source.Task `json:"tasks"`
}

// handleTasks lists tasks filtered by the subject, view and limit query
// parameters.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := schedule.TaskPanelOptions{
		Subject: q.Get("subject"),
		View:    schedule.TaskView(q.Get("view")),
	}
	switch opts.View {
	case "":
		opts.View = schedule.TaskViewCurrent
	case schedule.TaskViewCurrent, schedule.TaskViewOverdue, schedule.TaskViewPast:
	default:
		s.writeError(w, fmt.Errorf("unknown task view %q", opts.View))
		return
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("invalid limit %q", l))
			return
		}
		opts.Limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Do(r.Context(), s.engine.Today()) {
		s.writeError(w, errBusy)
		return
	}
	today := s.engine.State().Today
	tasks := s.engine.Records().Tasks
	s.writeJSON(w, http.StatusOK, tasksResponse{
		Today:    today,
		Subjects: schedule.Subjects(tasks),
		Tasks:    schedule.TaskPanel(tasks, today, opts),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Do(r.Context(), s.engine.Refresh()) {
		s.writeError(w, errBusy)
		return
	}
	s.writeJSON(w, http.StatusOK, s.views.Day)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode JSON response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	type errResp struct {
		Error string `json:"error"`
	}
	status := http.StatusBadRequest
	if errors.Is(err, errBusy) {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, errResp{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
			"query", r.URL.RawQuery, "status", rec.status, "elapsed", time.Since(begin))
	})
}
