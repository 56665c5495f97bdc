package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/TRVLR/internal/config"
	"github.com/copyleftdev/TRVLR/internal/errors"
	"github.com/copyleftdev/TRVLR/internal/logging"
	"github.com/copyleftdev/TRVLR/internal/solve"
	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SolveRequest describes one solve job: where the cities come from, which
// algorithm to run, and its parameters.
type SolveRequest struct {
	Instance  solve.Instance `json:"instance"`
	Algorithm string         `json:"algorithm"`
	Options   solve.Options  `json:"options"`
}

// JobState tracks one solve job. Jobs run asynchronously; the state is
// guarded by the server's job mutex and can be read concurrently.
type JobState struct {
	ID          string
	Algorithm   string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *tsp.Result
	Err         string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP and JSON-RPC server for the solve service.
// It manages solve jobs and provides endpoints to start, monitor, and
// cancel them.
type Server struct {
	cfg    *config.Config
	logger Logger

	// Job state management
	jobs   map[string]*JobState
	jobsMu sync.RWMutex // Protects the jobs map
}

// NewServer creates a new server instance with the given config and logger
// The logger parameter accepts any type that implements the Logger interface
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*JobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "solve.start":
		result, err = s.handleSolveStart(request.Params)
	case "solve.status":
		result, err = s.handleSolveStatus(request.Params)
	case "solve.cancel":
		err = s.handleSolveCancel(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSolveStart handles the solve.start JSON-RPC method. The single
// parameter object carries a SolveRequest:
// {"instance": {"coordinates": [[0,0],[1,0]]}, "algorithm": "grasp",
// "options": {"iterations": 50, "seed": 7}}
// Returns: {"job_id": "job_123", "status": "pending"}
func (s *Server) handleSolveStart(params []interface{}) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}

	// Round-trip the loosely typed parameter object into the request
	// struct so both transports share one schema.
	raw, err := json.Marshal(params[0])
	if err != nil {
		return nil, fmt.Errorf("invalid parameter format, expected object")
	}
	var req SolveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("invalid parameter format: %v", err)
	}

	return s.startJob(req)
}

// startJob validates the request, registers the job, and launches the
// solver goroutine.
func (s *Server) startJob(req SolveRequest) (interface{}, error) {
	model, err := req.Instance.Model()
	if err != nil {
		return nil, err
	}

	if req.Algorithm == "" {
		req.Algorithm = solve.GRASP
	}
	s.applyDefaults(&req.Options)

	solver, err := solve.New(req.Algorithm, req.Options)
	if err != nil {
		return nil, err
	}

	// Generate a unique ID for this job
	id := fmt.Sprintf("job_%d", time.Now().UnixNano())

	// Bound the job and make it cancellable
	var ctx context.Context
	var cancel context.CancelFunc
	if s.cfg.Solver.JobTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.cfg.Solver.JobTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	state := &JobState{
		ID:          id,
		Algorithm:   req.Algorithm,
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.jobsMu.Lock()
	s.jobs[id] = state
	s.jobsMu.Unlock()

	s.logger.Info("Solve job accepted", map[string]interface{}{
		"job_id":    id,
		"algorithm": req.Algorithm,
		"cities":    model.Size(),
	})

	go s.runSolve(ctx, solver, model, state)

	return map[string]interface{}{
		"job_id": id,
		"status": "pending",
	}, nil
}

// applyDefaults fills request options from the service configuration where
// the client left them unset.
func (s *Server) applyDefaults(opts *solve.Options) {
	if opts.Workers == 0 {
		opts.Workers = s.cfg.Solver.Workers
	}
	if opts.Iterations == 0 {
		opts.Iterations = s.cfg.Solver.Iterations
	}
	if opts.Seed == 0 {
		opts.Seed = s.cfg.Solver.Seed
	}
}

// handleSolveStatus handles the solve.status JSON-RPC method.
// Expected parameters: {"job_id": "job_123"}
// Returns: status object with the best tour once the job completed
func (s *Server) handleSolveStatus(params []interface{}) (interface{}, error) {
	id, err := jobIDParam(params)
	if err != nil {
		return nil, err
	}

	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	state, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job not found")
	}

	response := map[string]interface{}{
		"job_id":      state.ID,
		"algorithm":   state.Algorithm,
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	// Add end time if available
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}

	if state.Err != "" {
		response["error"] = state.Err
	}

	// Add the best tour if available
	if state.Result != nil {
		response["result"] = map[string]interface{}{
			"tour":        state.Result.Tour,
			"cost":        state.Result.Cost,
			"iterations":  state.Result.Iterations,
			"evaluations": state.Result.Evaluations,
			"duration_ms": float64(state.Result.Duration.Microseconds()) / 1000.0,
			"meta":        state.Result.Meta,
		}
	}

	return response, nil
}

// handleSolveCancel handles the solve.cancel JSON-RPC method.
// Expected parameters: {"job_id": "job_123"}
// Returns: nil on success, error on failure
func (s *Server) handleSolveCancel(params []interface{}) error {
	id, err := jobIDParam(params)
	if err != nil {
		return err
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		// Already in a terminal state
		return fmt.Errorf("cannot cancel job with status: %s", state.Status)
	}

	// Cancel the job
	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	// Update state
	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	// Log the cancellation
	s.logger.Info("Solve job cancelled", map[string]interface{}{
		"job_id": id,
	})

	return nil
}

// jobIDParam extracts the job_id field from JSON-RPC parameters.
func jobIDParam(params []interface{}) (string, error) {
	if len(params) == 0 {
		return "", fmt.Errorf("missing required parameters")
	}
	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid parameter format, expected object")
	}
	id, ok := paramMap["job_id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("job_id is required")
	}
	return id, nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// runSolve executes one solve job in a goroutine.
func (s *Server) runSolve(ctx context.Context, solver tsp.Solver, model *tsp.Model, state *JobState) {
	defer state.CancelFunc()

	// Update state to running unless a cancel arrived before we started
	s.jobsMu.Lock()
	if state.Status == "pending" {
		state.Status = "running"
		state.LastUpdated = time.Now()
	}
	s.jobsMu.Unlock()
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	result, err := solver.Solve(ctx, model)

	// Update state with results
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	now := time.Now()
	state.LastUpdated = now
	switch {
	case state.Status == "cancelled":
		// The cancel handler already set the verdict and end time; keep
		// the best tour found before the cancellation landed.
		state.Result = result
	case err != nil:
		wrapped := errors.Wrap(err, "solve job failed").
			WithComponent("server").
			WithOperation("runSolve")
		s.logger.Error("Solve job failed", wrapped.Fields(), map[string]interface{}{
			"job_id":    state.ID,
			"algorithm": state.Algorithm,
		})
		state.Status = "failed"
		state.Err = err.Error()
		state.Result = result
		state.EndTime = &now
	default:
		state.Status = "completed"
		state.Result = result
		state.EndTime = &now
		s.logger.Info("Solve job completed", map[string]interface{}{
			"job_id":     state.ID,
			"algorithm":  state.Algorithm,
			"cost":       result.Cost,
			"iterations": result.Iterations,
		})
	}

	jobsTotal.WithLabelValues(state.Algorithm, state.Status).Inc()
	if state.EndTime != nil {
		jobDuration.WithLabelValues(state.Algorithm).Observe(state.EndTime.Sub(state.StartTime).Seconds())
	}
}

// Close cleans up resources
func (s *Server) Close() error {
	// Cancel all running jobs
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}

// handleSolve handles the HTTP POST /solve endpoint for starting a job
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startJob(req)

	// Handle response
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles the HTTP GET /status/:id endpoint for checking a job
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from URL
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing job ID", http.StatusBadRequest)
		return
	}

	// Call the JSON-RPC handler
	result, err := s.handleSolveStatus([]interface{}{map[string]interface{}{
		"job_id": id,
	}})

	// Handle response
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles the HTTP DELETE /solve/:id endpoint for canceling a job
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from URL
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing job ID", http.StatusBadRequest)
		return
	}

	// Call the JSON-RPC handler
	err := s.handleSolveCancel([]interface{}{map[string]interface{}{
		"job_id": id,
	}})

	// Handle response
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "cancellation requested",
	})
}
