package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server exposes read-only status endpoints for the running simulation.
// It is presentation only; it never feeds anything back into the loop.
type Server struct {
	orch *Orchestrator
	log  *logrus.Logger
	port int
}

// NewServer creates the HTTP status server.
func NewServer(orch *Orchestrator, port int, log *logrus.Logger) *Server {
	return &Server{orch: orch, port: port, log: log}
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.WithField("port", s.port).Info("Starting HTTP status server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus returns the latest cycle snapshot.
// GET /status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rec, ok := s.orch.Snapshot()
	if !ok {
		http.Error(w, "no cycle has completed yet", http.StatusServiceUnavailable)
		return
	}

	resp := struct {
		SimulationTime float64 `json:"simulationTime"`
		Phase          string  `json:"phase"`
		Altitude       float64 `json:"altitude"`
		Airspeed       float64 `json:"airspeed"`
		VerticalSpeed  float64 `json:"verticalSpeed"`
		Throttle       float64 `json:"throttle"`
		ActiveFaults   int     `json:"activeFaults"`
		SensorValid    bool    `json:"sensorValid"`
	}{
		SimulationTime: rec.SimulationTime,
		Phase:          rec.Phase.String(),
		Altitude:       rec.Sensors.Altitude,
		Airspeed:       rec.Sensors.Airspeed,
		VerticalSpeed:  rec.Sensors.VerticalSpeed,
		Throttle:       rec.Controls.Throttle,
		ActiveFaults:   rec.ActiveFaults,
		SensorValid:    rec.Sensors.Valid,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Error("Failed to encode status response")
	}
}
