package anna

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hydro-project/anna-go/internal/lattice"
	"github.com/hydro-project/anna-go/internal/protocol"
	"github.com/hydro-project/anna-go/internal/transport"
)

// fakeCluster simulates a routing tier plus some number of worker
// replicas entirely in memory, answering every Send synchronously with
// the matching reply: a RoundTripper a Client can be pointed at without
// a real socket.
type fakeCluster struct {
	client *Client

	endpoints      []string
	replicas       map[string]map[string]lattice.Lattice // endpoint -> key -> value
	invalidateNext map[string]bool                        // endpoint -> invalidate its next reply once
	errorNext      map[string]protocol.ErrorCode          // endpoint -> force this error once

	invalidateAlways map[string]bool // endpoint -> invalidate every reply
	keyRequests      int             // KeyRequests received across all endpoints
}

func newFakeCluster(endpoints ...string) *fakeCluster {
	replicas := make(map[string]map[string]lattice.Lattice, len(endpoints))
	for _, e := range endpoints {
		replicas[e] = make(map[string]lattice.Lattice)
	}
	return &fakeCluster{
		endpoints:      endpoints,
		replicas:       replicas,
		invalidateNext: make(map[string]bool),
		errorNext:      make(map[string]protocol.ErrorCode),
	}
}

func (f *fakeCluster) Send(ctx context.Context, addr string, message any) error {
	switch req := message.(type) {
	case protocol.KeyAddressRequest:
		resp := &protocol.KeyAddressResponse{ResponseID: req.RequestID}
		for _, k := range req.Keys {
			resp.Addresses = append(resp.Addresses, protocol.KeyAddressEntry{
				Key: k,
				IPs: append([]string(nil), f.endpoints...),
			})
		}
		go deliverEventually(f.client, req.RequestID, resp)
		return nil

	case protocol.KeyRequest:
		f.keyRequests++
		resp := &protocol.KeyResponse{ResponseID: req.RequestID}
		store := f.replicas[addr]
		for _, tup := range req.Tuples {
			out := protocol.KeyTuple{Key: tup.Key}

			if code, forced := f.errorNext[addr]; forced {
				out.Error = code
				delete(f.errorNext, addr)
				resp.Tuples = append(resp.Tuples, out)
				continue
			}
			if f.invalidateNext[addr] || f.invalidateAlways[addr] {
				out.Invalidate = true
				delete(f.invalidateNext, addr)
			}

			key := string(tup.Key)
			switch req.Type {
			case protocol.RequestPut:
				val, err := f.client.decodeValue(tup)
				if err != nil {
					out.Error = protocol.ErrorLatticeMismatch
				} else if existing, ok := store[key]; ok {
					existing.Merge(val)
				} else {
					store[key] = val
				}
			case protocol.RequestGet:
				val, ok := store[key]
				if !ok {
					out.Error = protocol.ErrorKeyDoesNotExist
				} else {
					encoded, err := f.client.encodeValue(tup.Key, val)
					if err != nil {
						out.Error = protocol.ErrorLatticeMismatch
					} else {
						out.LatticeType = encoded.LatticeType
						out.Payload = encoded.Payload
					}
				}
			}
			resp.Tuples = append(resp.Tuples, out)
		}
		go deliverEventually(f.client, req.RequestID, resp)
		return nil

	default:
		return fmt.Errorf("fakeCluster: unexpected message type %T", message)
	}
}

var _ transport.RoundTripper = (*fakeCluster)(nil)

// deliverEventually retries Correlator.Deliver until it succeeds or
// timeout elapses. A Client always issues every Send for a batch of
// requests before it registers their ids with Await, so a response
// generated synchronously inside Send (as fakeCluster's is) can race
// Await's registration; retrying briefly closes that window the same
// way real network latency would.
func deliverEventually(c *Client, id string, msg any) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		if c.correlator.Deliver(id, msg) {
			return
		}
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestClient(t *testing.T, fake *fakeCluster) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{
		RoutingAddr:    "routing-tier",
		IP:             "10.0.0.5",
		Local:          true,
		RequestTimeout: 2 * time.Second,
		roundTripper:   fake,
	})
	require.NoError(t, err)
	fake.client = c
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutThenGetRoundTrip(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	ok, err := c.Put(ctx, []byte("k"), lattice.NewLWWPair(1, []byte("v1")))
	require.NoError(t, err)
	require.True(t, ok)

	got, err := c.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.NotNil(t, got["k"])
	require.Equal(t, []byte("v1"), got["k"].Reveal())
}

func TestGetUnknownKeyIsNilNotError(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)

	got, err := c.Get(context.Background(), []byte("missing"))
	require.NoError(t, err)
	require.Nil(t, got["missing"])
}

func TestGetAllMergesConcurrentSetValues(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000", "tcp://10.0.0.2:6000", "tcp://10.0.0.3:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	ok, err := c.PutAll(ctx, []byte("s"), lattice.NewSet([]byte("a")))
	require.NoError(t, err)
	require.True(t, ok)

	fake.replicas["tcp://10.0.0.2:6000"]["s"].Merge(lattice.NewSet([]byte("b")))

	got, err := c.GetAll(ctx, []byte("s"))
	require.NoError(t, err)
	require.NotNil(t, got["s"])
	values := got["s"].Reveal().([][]byte)
	require.Len(t, values, 2)
}

func TestPutAllRetriesOnceThenSucceeds(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000", "tcp://10.0.0.2:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	fake.invalidateNext["tcp://10.0.0.1:6000"] = true

	ok, err := c.PutAll(ctx, []byte("k"), lattice.NewLWWPair(1, []byte("v")))
	require.NoError(t, err)
	require.True(t, ok)

	for _, endpoint := range fake.endpoints {
		require.NotNil(t, fake.replicas[endpoint]["k"])
	}
}

func TestPutAllDoesNotRetryTwice(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	fake.invalidateAlways = map[string]bool{"tcp://10.0.0.1:6000": true}
	ok, err := c.PutAll(ctx, []byte("k"), lattice.NewLWWPair(1, []byte("v")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, fake.keyRequests, "expected the original put plus exactly one retry")
}

func TestPutReportsServerError(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	fake.errorNext["tcp://10.0.0.1:6000"] = protocol.ErrorLatticeMismatch

	ok, err := c.Put(ctx, []byte("k"), lattice.NewLWWPair(1, []byte("v")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheInvalidationForcesRequery(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)
	ctx := context.Background()

	_, err := c.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, c.routing.Cached([]byte("k")))

	fake.invalidateNext["tcp://10.0.0.1:6000"] = true
	_, err = c.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, c.routing.Cached([]byte("k")))

	_, err = c.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, c.routing.Cached([]byte("k")))
}

func TestResponseAddressIsStable(t *testing.T) {
	fake := newFakeCluster("tcp://10.0.0.1:6000")
	c := newTestClient(t, fake)

	a1 := c.ResponseAddress()
	a2 := c.ResponseAddress()
	require.Equal(t, a1, a2)
	require.NotEmpty(t, a1)
}
