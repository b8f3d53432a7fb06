package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackboxopt/asktell/internal/config"
	"github.com/blackboxopt/asktell/internal/logging"
	"github.com/blackboxopt/asktell/internal/optimization"
	"github.com/blackboxopt/asktell/internal/optimization/transforms"
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

// Recommendation is the externally reported best candidate of a job.
type Recommendation struct {
	Args []float64 `json:"args"`
	Loss *float64  `json:"loss,omitempty"`
}

// JobState tracks one optimization run. It is guarded by the server's job
// mutex: the protocol itself assumes a single coordinating goroutine, so
// all cross-goroutine reads go through here.
type JobState struct {
	ID             string
	Algorithm      string
	Status         string // "pending", "running", "completed", "failed", "cancelled"
	StartTime      time.Time
	EndTime        *time.Time
	NumAsk         int
	NumTell        int
	Recommendation *Recommendation
	CancelFunc     context.CancelFunc
	LastUpdated    time.Time
}

// Server implements the HTTP and JSON-RPC surface of the optimization
// service: it builds protocols from the registry, runs minimize jobs and
// reports their progress.
type Server struct {
	cfg      *config.Config
	logger   Logger
	zlog     *zap.Logger
	registry *optimization.Registry
	metrics  *Metrics

	jobs   map[string]*JobState
	jobsMu sync.RWMutex
}

// NewServer creates a new server instance with the given config, loggers,
// family registry and metrics.
func NewServer(cfg *config.Config, logger Logger, zlog *zap.Logger, registry *optimization.Registry, metrics *Metrics) *Server {
	if zlog == nil {
		zlog = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		zlog:     zlog,
		registry: registry,
		metrics:  metrics,
		jobs:     make(map[string]*JobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/algorithms", s.handleAlgorithms)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// optimizeRequest is the body of POST /api/v1/optimize and the parameter
// object of optimization.start.
type optimizeRequest struct {
	Algorithm string      `json:"algorithm"`
	Objective string      `json:"objective"`
	Bounds    [][]float64 `json:"bounds"`
	Budget    int         `json:"budget"`
	Workers   int         `json:"workers"`
	BatchMode bool        `json:"batch_mode"`
}

// builtinObjectives are the server-side fitness functions a job can run
// against. External evaluation drives the library Ask/Tell surface
// directly instead of this endpoint.
var builtinObjectives = map[string]optimization.Objective{
	"sphere": func(args []float64) float64 {
		sum := 0.0
		for _, v := range args {
			sum += v * v
		}
		return sum
	},
	"shifted-sphere": func(args []float64) float64 {
		sum := 0.0
		for _, v := range args {
			sum += (v - 1) * (v - 1)
		}
		return sum
	},
}

// startJob validates a request, builds a protocol from the registry and
// launches the minimize loop in a goroutine.
func (s *Server) startJob(req optimizeRequest) (*JobState, error) {
	if req.Algorithm == "" {
		req.Algorithm = "OnePlusOne"
	}
	family, ok := s.registry.Lookup(req.Algorithm)
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q, available: %v", req.Algorithm, s.registry.Names())
	}
	if req.Objective == "" {
		req.Objective = "sphere"
	}
	objective, ok := builtinObjectives[req.Objective]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", req.Objective)
	}
	if len(req.Bounds) == 0 {
		return nil, fmt.Errorf("bounds are required")
	}
	if max := s.cfg.Optimization.MaxDimension; max > 0 && len(req.Bounds) > max {
		return nil, fmt.Errorf("dimension %d exceeds the configured maximum %d", len(req.Bounds), max)
	}
	if req.Budget <= 0 {
		req.Budget = s.cfg.Optimization.DefaultBudget
	}
	if req.Workers <= 0 {
		req.Workers = s.cfg.Optimization.DefaultWorkers
	}

	instrumentation, err := optimization.NewInstrumentation(len(req.Bounds))
	if err != nil {
		return nil, err
	}
	for i, bound := range req.Bounds {
		if len(bound) != 2 {
			return nil, fmt.Errorf("invalid bounds format, expected [[min1, max1], [min2, max2], ...]")
		}
		transform, err := transforms.NewArctanBound([]float64{bound[0]}, []float64{bound[1]})
		if err != nil {
			return nil, err
		}
		if err := instrumentation.SetTransform(i, transform); err != nil {
			return nil, err
		}
	}

	protocol, err := family.New(instrumentation, optimization.Settings{
		Budget:     req.Budget,
		NumWorkers: req.Workers,
		Logger:     s.zlog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &JobState{
		ID:          "opt_" + uuid.NewString(),
		Algorithm:   req.Algorithm,
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.attachObservers(protocol, state)

	s.jobsMu.Lock()
	s.jobs[state.ID] = state
	s.jobsMu.Unlock()

	go s.runJob(ctx, protocol, objective, req, state)
	return state, nil
}

// attachObservers wires job bookkeeping and prometheus counters into the
// protocol's ask/tell hooks.
func (s *Server) attachObservers(protocol *optimization.Protocol, state *JobState) {
	// Register never fails for the built-in event names.
	_ = protocol.RegisterCallback(optimization.EventAsk,
		func(p *optimization.Protocol, c *optimization.Candidate, loss *float64) {
			if s.metrics != nil {
				s.metrics.AsksTotal.WithLabelValues(state.Algorithm).Inc()
			}
			s.jobsMu.Lock()
			state.NumAsk = p.NumAsk()
			state.LastUpdated = time.Now()
			s.jobsMu.Unlock()
		})
	_ = protocol.RegisterCallback(optimization.EventTell,
		func(p *optimization.Protocol, c *optimization.Candidate, loss *float64) {
			rec := p.ProvideRecommendation()
			if s.metrics != nil {
				s.metrics.TellsTotal.WithLabelValues(state.Algorithm).Inc()
				if rec.Loss != nil {
					s.metrics.BestLoss.WithLabelValues(state.ID).Set(*rec.Loss)
				}
			}
			s.jobsMu.Lock()
			state.NumTell = p.NumTell()
			state.Recommendation = &Recommendation{Args: rec.Args, Loss: rec.Loss}
			state.LastUpdated = time.Now()
			s.jobsMu.Unlock()
		})
}

// runJob executes the minimize loop in a goroutine.
func (s *Server) runJob(ctx context.Context, protocol *optimization.Protocol, objective optimization.Objective, req optimizeRequest, state *JobState) {
	s.jobsMu.Lock()
	state.Status = "running"
	s.jobsMu.Unlock()

	recommendation, err := protocol.Minimize(ctx, objective, optimization.MinimizeOptions{
		Budget:     req.Budget,
		NumWorkers: req.Workers,
		BatchMode:  req.BatchMode || s.cfg.Optimization.BatchMode,
		Executor:   optimization.Concurrent(),
	})

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	switch {
	case err != nil && ctx.Err() != nil:
		// Cancellation already set the terminal status.
	case err != nil:
		s.logger.Error("Optimization failed", map[string]interface{}{
			"job_id": state.ID,
			"error":  err.Error(),
		})
		state.Status = "failed"
		if s.metrics != nil {
			s.metrics.JobsTotal.WithLabelValues("failed").Inc()
		}
	default:
		state.Status = "completed"
		state.Recommendation = &Recommendation{Args: recommendation.Args, Loss: recommendation.Loss}
		if s.metrics != nil {
			s.metrics.JobsTotal.WithLabelValues("completed").Inc()
		}
	}
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// jobStatus builds the externally visible status document for a job.
func (s *Server) jobStatus(id string) (map[string]interface{}, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	state, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}
	response := map[string]interface{}{
		"status":      state.Status,
		"algorithm":   state.Algorithm,
		"num_ask":     state.NumAsk,
		"num_tell":    state.NumTell,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Recommendation != nil {
		response["recommendation"] = state.Recommendation
	}
	return response, nil
}

// cancelJob cancels a running job.
func (s *Server) cancelJob(id string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("optimization not found")
	}
	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}
	if state.CancelFunc != nil {
		state.CancelFunc()
	}
	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	if s.metrics != nil {
		s.metrics.JobsTotal.WithLabelValues("cancelled").Inc()
	}

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"job_id": id,
	})
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	state, err := s.startJob(req)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"optimization_id": state.ID,
		"status":          "pending",
	})
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	result, err := s.jobStatus(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(result)
}

// handleAlgorithms handles GET /api/v1/algorithms.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"algorithms": s.registry.Names(),
	})
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	err := s.cancelJob(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error
	switch request.Method {
	case "optimization.start":
		result, err = s.rpcStart(request.Params)
	case "optimization.status":
		result, err = s.rpcStatus(request.Params)
	case "optimization.cancel":
		err = s.rpcCancel(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}
	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func firstParam(params []json.RawMessage, out interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("missing required parameters")
	}
	return json.Unmarshal(params[0], out)
}

func (s *Server) rpcStart(params []json.RawMessage) (interface{}, error) {
	var req optimizeRequest
	if err := firstParam(params, &req); err != nil {
		return nil, err
	}
	state, err := s.startJob(req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"optimization_id": state.ID,
		"status":          "pending",
	}, nil
}

func (s *Server) rpcStatus(params []json.RawMessage) (interface{}, error) {
	var req struct {
		OptimizationID string `json:"optimization_id"`
	}
	if err := firstParam(params, &req); err != nil {
		return nil, err
	}
	if req.OptimizationID == "" {
		return nil, fmt.Errorf("optimization_id is required")
	}
	return s.jobStatus(req.OptimizationID)
}

func (s *Server) rpcCancel(params []json.RawMessage) error {
	var req struct {
		OptimizationID string `json:"optimization_id"`
	}
	if err := firstParam(params, &req); err != nil {
		return err
	}
	if req.OptimizationID == "" {
		return fmt.Errorf("optimization_id is required")
	}
	return s.cancelJob(req.OptimizationID)
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

// Close cancels all running jobs.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}
