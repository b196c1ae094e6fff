package service

import (
	"context"
	"encoding/json"
	"time"
)

// ItemFailure records one item a batch operation skipped.
type ItemFailure struct {
	Item string
	Op   string
	Err  error
}

func (f ItemFailure) Error() string { return f.Item + ": " + f.Op + ": " + f.Err.Error() }

func (f ItemFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"item": f.Item, "op": f.Op, "error": f.Err.Error()})
}

// Report is the outcome of a batch operation. A failed item never stops the batch.
type Report struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

func (r *Report) Failed() int { return len(r.Failures) }

func (r *Report) fail(item, op string, err error) {
	r.Failures = append(r.Failures, ItemFailure{Item: item, Op: op, Err: err})
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
