// Package server exposes a planner over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/store"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Server serves one named plan, persisted in a store.
type Server struct {
	planner *forecast.Planner
	store   store.Store
	name    string
	log     *logrus.Logger
	router  *mux.Router
	cron    *cron.Cron

	// mu serializes mutate-then-save sequences.
	mu sync.Mutex
}

// New returns a Server for the plan name of s, held in planner.
func New(planner *forecast.Planner, s store.Store, name string, log *logrus.Logger) *Server {
	srv := &Server{
		planner: planner,
		store:   s,
		name:    name,
		log:     log,
		router:  mux.NewRouter(),
	}
	srv.registerRoutes()
	srv.router.Use(requestIDMiddleware, loggingMiddleware(log), recoveryMiddleware(log))
	return srv
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// StartRollover schedules a recomputation of the projection on spec (a
// standard 5 fields cron expression), so that month labels follow the
// calendar. The returned func stops the scheduler.
func (s *Server) StartRollover(spec string) (stop func(), err error) {
	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		p := s.planner.Recompute()
		s.log.WithFields(logrus.Fields{
			"plan":  s.name,
			"start": p.Start.String(),
		}).Info("projection rolled over")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	return func() { <-c.Stop().Done() }, nil
}

// ListenAndServe serves the API on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": addr, "plan": s.name}).Info("starting server")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/plan", s.handleGetPlan).Methods(http.MethodGet)
	r.HandleFunc("/plan", s.handlePutPlan).Methods(http.MethodPut)
	r.HandleFunc("/plan/income", s.handlePatchIncome).Methods(http.MethodPatch)
	r.HandleFunc("/plan/fixed", s.handlePatchFixed).Methods(http.MethodPatch)
	r.HandleFunc("/plan/goals", s.handlePatchGoals).Methods(http.MethodPatch)
	r.HandleFunc("/plan/assumptions", s.handlePatchAssumptions).Methods(http.MethodPatch)
	r.HandleFunc("/plan/portfolio", s.handlePatchPortfolio).Methods(http.MethodPatch)
	r.HandleFunc("/plan/funds", s.handleAddFund).Methods(http.MethodPost)
	r.HandleFunc("/plan/funds/{id}", s.handlePatchFund).Methods(http.MethodPatch)
	r.HandleFunc("/plan/funds/{id}", s.handleRemoveFund).Methods(http.MethodDelete)
	r.HandleFunc("/plan/reset", s.handleReset).Methods(http.MethodPost)

	r.HandleFunc("/projection", s.handleProjection).Methods(http.MethodGet)
	r.HandleFunc("/projection.csv", s.handleProjectionCSV).Methods(http.MethodGet)
	r.HandleFunc("/projection.xlsx", s.handleProjectionXLSX).Methods(http.MethodGet)
	r.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/charts/{name}.{format:png|svg}", s.handleChart).Methods(http.MethodGet)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// mutate validates edit on a copy of the plan, then runs apply on the
// planner and saves the result. On a store failure the previous plan is
// restored.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, edit func(*forecast.Plan) error, apply func() (*forecast.Projection, error)) (*forecast.Projection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.planner.Plan()
	candidate := previous.Clone()
	if err := edit(candidate); err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if err := candidate.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	proj, err := apply()
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if err := s.store.Save(r.Context(), s.name, s.planner.Plan()); err != nil {
		s.planner.SetPlan(previous)
		s.log.WithError(err).WithField("plan", s.name).Error("failed to save plan")
		WriteError(w, http.StatusInternalServerError, "Failed to save plan")
		return nil, false
	}
	s.log.WithField("plan", s.name).Info("plan updated")
	return proj, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, forecast.ErrFundNotFound) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, forecast.ErrDuplicateFund) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error())
}
