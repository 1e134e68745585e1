package env

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one completed Run's historic entry: its full per-step
// signal log plus a windowed moving-average evolution per tracked
// signal, for later inspection or plotting.
type RunRecord struct {
	Title     string
	ID        int
	Steps     int
	Logs      []map[string]float64
	Evolution map[string][]float64
	Duration  time.Duration
}

// Run drives Step for Steps iterations (continuing past Steps if a
// timeout reset is mid-cycle, mirroring the "finish the current episode"
// rule), then appends a RunRecord with a moving average over window for
// every signal in trackedSignals.
func (e *Environment) Run(ctx context.Context, title string, window int, trackedSignals []string) (RunRecord, error) {
	if title == "" {
		title = fmt.Sprintf("Run %d", len(e.Historic)+1)
	}

	start := time.Now()
	e.Iterations = 0

	// With no timeout configured there is no reload cycle to finish, so
	// Run stops exactly at Steps. With a timeout, Run continues past
	// Steps until the in-progress reload cycle completes, so every run
	// ends on a clean preset boundary.
	var logs []map[string]float64
	reset := e.Timeout <= 0
	i := 0
	for i < e.Steps || !reset {
		select {
		case <-ctx.Done():
			return RunRecord{}, fmt.Errorf("env: run %q cancelled: %w", title, ctx.Err())
		default:
		}

		i++
		reset = false
		log, err := e.Step(ctx)
		if err != nil {
			return RunRecord{}, err
		}
		logs = append(logs, log)
		if e.Timeout <= 0 || e.Iterations == 0 {
			reset = true
		}
	}

	evolution := make(map[string][]float64, len(trackedSignals))
	for _, signal := range trackedSignals {
		series := make([]float64, 0, len(logs))
		for _, log := range logs {
			if v, ok := log[signal]; ok {
				series = append(series, v)
			}
		}
		avg, err := MovingAverage(series, window)
		if err != nil {
			return RunRecord{}, err
		}
		evolution[signal] = avg
	}

	record := RunRecord{
		Title:     title,
		ID:        len(e.Historic),
		Steps:     e.Steps,
		Logs:      logs,
		Evolution: evolution,
		Duration:  time.Since(start),
	}
	e.Historic = append(e.Historic, record)
	return record, nil
}

// MovingAverage returns the windowed moving average of data. An empty
// data slice yields an empty result. A non-positive window is a fatal
// configuration error.
func MovingAverage(data []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("env: window size must be positive, got %d", window)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < window {
		return []float64{}, nil
	}

	cumsum := make([]float64, len(data)+1)
	for i, x := range data {
		cumsum[i+1] = cumsum[i] + x
	}
	out := make([]float64, len(data)-window+1)
	for i := range out {
		out[i] = (cumsum[i+window] - cumsum[i]) / float64(window)
	}
	return out, nil
}
