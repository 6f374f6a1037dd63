// Package web serves a read-only JSON view of the step history.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

// maxRangeDays bounds /api/v1/steps ranges.
const maxRangeDays = 366

// Reader is the part of the service manager the server reads from.
type Reader interface {
	CurrentTotal() int
	Goal() int
	Status() services.StatusEvent
	Projection() *models.GoalProjection
	HourlySeries(ctx context.Context, day models.Day) (models.HourlySeries, error)
	DailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error)
}

// Server serves the API over HTTP.
type Server struct {
	httpServer *http.Server
	reader     Reader
	now        func() time.Time
}

// New creates a Server. Access logs go to accessLog.
func New(addr string, reader Reader, accessLog io.Writer) *Server {
	s := &Server{reader: reader, now: time.Now}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler()(handlers.LoggingHandler(accessLog, s.router())),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/steps/today", s.handleToday).Methods(http.MethodGet)
	api.HandleFunc("/steps", s.handleRange).Methods(http.MethodGet)
	api.HandleFunc("/steps/{day}/hourly", s.handleHourly).Methods(http.MethodGet)

	return r
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatusJSON(s.reader.Status()))
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	day := models.DayOf(s.now())
	series, err := s.reader.HourlySeries(r.Context(), day)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TodayJSON{
		Day:        day.String(),
		Total:      s.reader.CurrentTotal(),
		Goal:       s.reader.Goal(),
		Hourly:     newHourlyJSON(series),
		Projection: newProjectionJSON(s.reader.Projection()),
	})
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	day, err := models.ParseDay(mux.Vars(r)["day"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	series, err := s.reader.HourlySeries(r.Context(), day)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DayJSON{
		Day:    day.String(),
		Total:  series.Total(),
		Hourly: newHourlyJSON(series),
	})
}

// handleRange returns daily totals for ?from=&to=, defaulting to the last
// seven days.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	to := models.DayOf(s.now())
	from := to.AddDays(-6)

	q := r.URL.Query()
	var err error
	if v := q.Get("to"); v != "" {
		if to, err = models.ParseDay(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		from = to.AddDays(-6)
	}
	if v := q.Get("from"); v != "" {
		if from, err = models.ParseDay(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, errors.New("from must not be after to"))
		return
	}
	if from.AddDays(maxRangeDays).Before(to) {
		writeError(w, http.StatusBadRequest, errors.New("range too large"))
		return
	}

	totals, err := s.reader.DailyTotals(r.Context(), from, to)
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := RangeJSON{From: from.String(), To: to.String(), Days: make([]DailyJSON, 0, len(totals))}
	for _, t := range totals {
		out.Days = append(out.Days, DailyJSON{Day: t.Day.String(), Steps: t.Steps})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	logger.Error("API request failed", "error", err)
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorJSON{Error: err.Error()})
}
