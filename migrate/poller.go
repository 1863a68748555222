package migrate

import (
	"context"
	"fmt"
	"time"
)

// Defaults for the lifecycle poll loop. 100 attempts at 5s apart bounds a
// single creation wait at roughly 8.3 minutes.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollAttempts = 100
)

// Poller waits for an asynchronously provisioned destination resource to
// reach the ACTIVE lifecycle state. The loop is generic over resource kind;
// zones and TSIG keys share it.
type Poller struct {
	Client      LifecycleClient
	Interval    time.Duration
	MaxAttempts int

	// sleep is replaced in tests. When nil a context-aware sleep is used.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller returns a Poller with the default interval and attempt budget.
func NewPoller(client LifecycleClient) *Poller {
	return &Poller{
		Client:      client,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultPollAttempts,
	}
}

// AwaitActive polls the resource's lifecycle state until it becomes ACTIVE.
// A state other than CREATING or ACTIVE fails immediately with
// UnexpectedStateError; exhausting the attempt budget fails with
// TimeoutError.
func (p *Poller) AwaitActive(ctx context.Context, kind ResourceKind, id string) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		state, err := p.Client.GetLifecycleState(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("get lifecycle state for %s %q: %w", kind, id, err)
		}
		switch state {
		case StateActive:
			return nil
		case StateCreating:
			if err := sleep(ctx, p.Interval); err != nil {
				return err
			}
		default:
			return &UnexpectedStateError{Kind: kind, ID: id, State: state}
		}
	}
	return &TimeoutError{Kind: kind, ID: id, Attempts: p.MaxAttempts}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
