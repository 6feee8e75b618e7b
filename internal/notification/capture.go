package notification

import (
	"context"
	"errors"
	"sync"
)

// Capture records published alerts for assertions in tests.
type Capture struct {
	mu        sync.Mutex
	published []CapturedAlert
	fail      bool
}

type CapturedAlert struct {
	Topic   string
	Payload any
}

func NewCapture() *Capture {
	return &Capture{}
}

// FailNext makes every subsequent Publish return an error, exercising
// the best-effort delivery contract.
func (c *Capture) FailNext(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *Capture) Publish(_ context.Context, topic string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.published = append(c.published, CapturedAlert{Topic: topic, Payload: payload})
	return nil
}

func (c *Capture) Published() []CapturedAlert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedAlert, len(c.published))
	copy(out, c.published)
	return out
}
