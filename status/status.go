// Package status aggregates the self reported status of the running components
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

var ErrUnknownReporter = errors.New("unknown reporter")

// Reporter is implemented by components exposing their status
type Reporter interface {
	GetStatus() any
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func() any

func (f ReporterFunc) GetStatus() any {
	return f()
}

// Service holds the reporters in registration order
type Service struct {
	mu        sync.RWMutex
	names     []string
	reporters map[string]Reporter
}

func NewService() *Service {
	return &Service{reporters: make(map[string]Reporter)}
}

// Register adds a reporter, replacing the one with the same name if any
func (s *Service) Register(name string, reporter Reporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reporters[name]; !ok {
		s.names = append(s.names, name)
	}
	s.reporters[name] = reporter
}

// GetStatus returns the status of every reporter keyed by name
func (s *Service) GetStatus() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[string]any, len(s.reporters))
	for name, r := range s.reporters {
		res[name] = r.GetStatus()
	}
	return res
}

// GetReporters returns the names of the reporters
func (s *Service) GetReporters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// GetReporterStatus returns the status of a single reporter
func (s *Service) GetReporterStatus(name string) (any, error) {
	s.mu.RLock()
	r, ok := s.reporters[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownReporter, name)
	}
	return r.GetStatus(), nil
}

// ServeHTTP answers /status with every status and /status/<name> with one of them
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body any = s.GetStatus()
	if name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/status"), "/"); name != "" {
		st, err := s.GetReporterStatus(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		body = st
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
