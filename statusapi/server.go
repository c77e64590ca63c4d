package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gatici/mongodb-operator/model"
	"github.com/gorilla/mux"
	"net/http"
	"time"
)

const StatusPath = "/unit/status"

type Server struct {
	Recorder *Recorder
	Metrics  *Metrics
	Router   *mux.Router
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(recorder *Recorder, metrics *Metrics) *Server {
	s := &Server{
		Recorder: recorder,
		Metrics:  metrics,
		Router:   mux.NewRouter().StrictSlash(true),
	}
	s.Router.Methods("GET").Path(StatusPath).Name("StatusGet").HandlerFunc(s.StatusGet)
	s.Router.Methods("PUT").Path(StatusPath).Name("StatusPut").HandlerFunc(s.StatusPut)
	if metrics != nil {
		s.Router.Methods("GET").Path("/metrics").Name("Metrics").Handler(metrics.Handler())
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLog.WithError(err).Error("could not encode response")
	}
}

func (s *Server) StatusGet(w http.ResponseWriter, r *http.Request) {
	report, reported := s.Recorder.Last()
	if !reported {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no status reported yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) StatusPut(w http.ResponseWriter, r *http.Request) {
	var status model.UnitStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("could not decode unit status: %s", err)})
		return
	}
	if err := s.Recorder.Report(r.Context(), status); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		apiLog.Infof("listening on `%s`", addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
