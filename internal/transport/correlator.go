package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Correlator generates request ids and matches incoming replies to the
// set of ids currently outstanding, discarding anything that doesn't
// match non-destructively.
//
// Request ids stay in the "ip:counter" form so they remain meaningful
// to a server expecting that wire protocol. instanceID is a separate,
// process-lifetime-scoped random id with no wire role: it disambiguates
// two client processes that restart and reuse the same IP from each
// other in logs and traces.
type Correlator struct {
	ip      string
	modulus int

	instanceID string

	mu       sync.Mutex
	counter  int
	channels map[string]chan arrival
}

type arrival struct {
	id  string
	msg any
}

// DefaultRequestIDModulus is the request-id counter's default
// wraparound modulus; callers that need a different cardinality pass
// their own to NewCorrelator.
const DefaultRequestIDModulus = 10000

// NewCorrelator constructs a Correlator that mints ids as "ip:counter"
// with counter wrapping at modulus. A modulus <= 0 falls back to
// DefaultRequestIDModulus.
func NewCorrelator(ip string, modulus int) *Correlator {
	if modulus <= 0 {
		modulus = DefaultRequestIDModulus
	}
	return &Correlator{
		ip:         ip,
		modulus:    modulus,
		instanceID: uuid.NewString(),
		channels:   make(map[string]chan arrival),
	}
}

// InstanceID returns the random id minted for this Correlator's
// process lifetime, for attaching to log lines and spans alongside the
// ip:counter request id.
func (c *Correlator) InstanceID() string {
	return c.instanceID
}

// NextRequestID returns a fresh, process-locally-unique request id.
func (c *Correlator) NextRequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := fmt.Sprintf("%s:%d", c.ip, c.counter)
	c.counter = (c.counter + 1) % c.modulus
	return id
}

// Deliver hands msg to whoever is awaiting id, if anyone. It returns
// false, discarding msg, when id is not currently outstanding -- either
// because it was never requested, already satisfied, or belongs to a
// caller that has stopped waiting.
func (c *Correlator) Deliver(id string, msg any) bool {
	c.mu.Lock()
	ch, ok := c.channels[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- arrival{id: id, msg: msg}:
		return true
	default:
		return false
	}
}

// Await blocks until one message has been delivered for every id in
// ids, or ctx is done. On timeout it returns ErrTimeout along with
// whatever partial results had already arrived. Duplicate deliveries
// for an id already satisfied are discarded, so each id yields exactly
// one entry in the result.
func (c *Correlator) Await(ctx context.Context, ids []string) (map[string]any, error) {
	ch := make(chan arrival, len(ids))

	c.mu.Lock()
	for _, id := range ids {
		c.channels[id] = ch
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		for _, id := range ids {
			delete(c.channels, id)
		}
		c.mu.Unlock()
	}()

	remaining := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remaining[id] = struct{}{}
	}
	results := make(map[string]any, len(ids))

	for len(remaining) > 0 {
		select {
		case <-ctx.Done():
			return results, ErrTimeout
		case a := <-ch:
			if _, ok := remaining[a.id]; ok {
				results[a.id] = a.msg
				delete(remaining, a.id)
			}
		}
	}
	return results, nil
}
