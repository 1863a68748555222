package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dyninc/oci-dns-migration-script/migrate"
)

// statusServer tracks batch progress and serves it over HTTP so long
// migration runs can be watched without scraping logs. It implements
// migrate.Tracker. The batch is sequential, so at most one zone is in
// flight at a time.
type statusServer struct {
	startTime time.Time

	mu           sync.RWMutex
	total        int
	created      int
	skipped      int
	failed       int
	current      string
	recentFailed []string // last 10 failures with their errors
}

// statusResponse is the JSON response for the status endpoint.
type statusResponse struct {
	StartTime    time.Time `json:"start_time"`
	Runtime      string    `json:"runtime"`
	TotalZones   int       `json:"total_zones"`
	Created      int       `json:"created"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	Remaining    int       `json:"remaining"`
	CurrentZone  string    `json:"current_zone,omitempty"`
	RecentFailed []string  `json:"recent_failed,omitempty"`
}

// Start implements migrate.Tracker.
func (s *statusServer) Start(zone string) {
	s.mu.Lock()
	s.current = zone
	s.mu.Unlock()
}

// Done implements migrate.Tracker.
func (s *statusServer) Done(r migrate.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ""
	switch r.Outcome {
	case migrate.OutcomeCreated:
		s.created++
	case migrate.OutcomeSkipped:
		s.skipped++
	default:
		s.failed++
		entry := r.Zone
		if r.Err != nil {
			entry += ": " + r.Err.Error()
		}
		s.recentFailed = append(s.recentFailed, entry)
		if len(s.recentFailed) > 10 {
			s.recentFailed = s.recentFailed[1:]
		}
	}
}

func (s *statusServer) snapshot() statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recent := make([]string, len(s.recentFailed))
	copy(recent, s.recentFailed)
	done := s.created + s.skipped + s.failed
	return statusResponse{
		StartTime:    s.startTime,
		Runtime:      time.Since(s.startTime).Round(time.Second).String(),
		TotalZones:   s.total,
		Created:      s.created,
		Skipped:      s.skipped,
		Failed:       s.failed,
		Remaining:    s.total - done,
		CurrentZone:  s.current,
		RecentFailed: recent,
	}
}

func (s *statusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *statusServer) progressHandler(w http.ResponseWriter, r *http.Request) {
	status := s.snapshot()
	done := status.Created + status.Skipped + status.Failed
	var percentage float64
	if status.TotalZones > 0 {
		percentage = float64(done) / float64(status.TotalZones) * 100
	}
	writeJSON(w, map[string]any{
		"done":       done,
		"total":      status.TotalZones,
		"remaining":  status.Remaining,
		"percentage": percentage,
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// serveStatus starts the status endpoints on the given port and returns
// the tracker feeding them.
func serveStatus(port string, totalZones int) *statusServer {
	s := &statusServer{startTime: time.Now(), total: totalZones}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/progress", s.progressHandler)
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		log.Infof("status server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("status server: %v", err)
		}
	}()
	return s
}
