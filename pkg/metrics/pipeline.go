package metrics

import (
	"sync"
	"time"
)

// PipelineMetrics tracks run and stage outcomes of the analogy pipeline.
type PipelineMetrics struct {
	mu sync.RWMutex

	// Run metrics
	TotalRuns     int64
	FailedRuns    int64
	RunDuration   time.Duration
	FailedByStage map[string]int64

	// Stage metrics
	StageCalls    map[string]int64
	StageDuration map[string]time.Duration

	// Feedback metrics
	FeedbackEntries  int64
	FeedbackRejected int64
}

// NewPipelineMetrics creates a new PipelineMetrics instance
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		FailedByStage: make(map[string]int64),
		StageCalls:    make(map[string]int64),
		StageDuration: make(map[string]time.Duration),
	}
}

// RecordRun records a finished pipeline run. failedStage is empty on success.
func (m *PipelineMetrics) RecordRun(failedStage string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.RunDuration += duration

	if failedStage != "" {
		m.FailedRuns++
		m.FailedByStage[failedStage]++
	}
}

// RecordStage records one stage execution, successful or not.
func (m *PipelineMetrics) RecordStage(stage string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StageCalls[stage]++
	m.StageDuration[stage] += duration
}

// RecordFeedback records a feedback submission.
func (m *PipelineMetrics) RecordFeedback(accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accepted {
		m.FeedbackEntries++
		return
	}

	m.FeedbackRejected++
}

// GetMetrics returns a snapshot of the current metrics
func (m *PipelineMetrics) GetMetrics() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stages := make(map[string]any, len(m.StageCalls))

	for stage, calls := range m.StageCalls {
		stages[stage] = map[string]any{
			"calls":        calls,
			"failed_runs":  m.FailedByStage[stage],
			"avg_duration": average(m.StageDuration[stage], calls),
		}
	}

	return map[string]any{
		"total_runs":        m.TotalRuns,
		"failed_runs":       m.FailedRuns,
		"avg_run_duration":  average(m.RunDuration, m.TotalRuns),
		"stages":            stages,
		"feedback_entries":  m.FeedbackEntries,
		"feedback_rejected": m.FeedbackRejected,
	}
}

func average(total time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}

	return total.Seconds() / float64(count)
}
