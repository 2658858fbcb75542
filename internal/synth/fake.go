package synth

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a deterministic Synthesizer for tests and dry runs. It records
// every request it receives and can be scripted to fail or block.
type Fake struct {
	mu       sync.Mutex
	requests []Request

	// Err, when set, is returned from every call.
	Err error
	// OnCall, when set, runs before the response is built. Tests use it
	// to simulate a concurrent record edit during the synthesis call.
	OnCall func(req Request)
	// Result, when set, overrides the derived response.
	Result *Result
}

func (f *Fake) Synthesize(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	onCall := f.OnCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		out := *f.Result
		return &out, nil
	}
	return &Result{
		Description: fmt.Sprintf("Design record for %s", req.Path),
		Body:        fmt.Sprintf("Generated for %s (%s).", req.Path, req.Hint),
	}, nil
}

// Requests returns a copy of the received requests in call order.
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Calls returns how many synthesis calls were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
