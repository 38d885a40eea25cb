package operations

import (
	"log/slog"
	"sync"
	"time"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Keys for values handed from one stage to the next
const (
	// ContextKeySpreadsheet holds the path of the workbook fetched in this run
	ContextKeySpreadsheet = "spreadsheet_path"
	// ContextKeyMonthlyRows holds the number of monthly rows written
	ContextKeyMonthlyRows = "monthly_rows"
)

// RunState is the state of one pipeline run and doubles as its report
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Steps holds the per-stage state in registration order
	Steps []*StepState `json:"steps"`

	// Context carries values between stages
	Context map[string]interface{} `json:"-"`

	Error error `json:"-"`
}

// NewRunState creates a pending run
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// Cancel marks the run as cancelled
func (r *RunState) Cancel(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCancelled
	r.Error = err
}

// AddStage appends the state of a registered stage
func (r *RunState) AddStage(state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, state)
}

// GetStage returns the state of a specific Step, or nil
func (r *RunState) GetStage(stageID string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.Steps {
		if s.ID == stageID {
			return s
		}
	}
	return nil
}

// GetContext retrieves a value handed over by an earlier stage
func (r *RunState) GetContext(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.Context[key]
	return val, ok
}

// SetContext stores a value for later stages
func (r *RunState) SetContext(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Context[key] = value
}

// FetchedSpreadsheet returns the workbook written by the fetch stage, or ""
func (r *RunState) FetchedSpreadsheet() string {
	val, ok := r.GetContext(ContextKeySpreadsheet)
	if !ok {
		return ""
	}
	path, _ := val.(string)
	return path
}

// GetStatus returns the overall status
func (r *RunState) GetStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// GetFailedStages returns all failed steps
func (r *RunState) GetFailedStages() []*StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var failed []*StepState
	for _, s := range r.Steps {
		if s.GetStatus() == StepStatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// LogValue renders the run summary for slog
func (r *RunState) LogValue() slog.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attrs := []slog.Attr{
		slog.String("run_id", r.ID),
		slog.String("status", string(r.Status)),
	}
	for _, s := range r.Steps {
		attrs = append(attrs, slog.Group(s.ID,
			slog.String("status", string(s.GetStatus())),
			slog.Duration("duration", s.Duration()),
			slog.String("message", s.GetMessage()),
		))
	}
	return slog.GroupValue(attrs...)
}
