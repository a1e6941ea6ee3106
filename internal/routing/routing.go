// Package routing implements the client's address cache: a mapping
// from key to the worker endpoints that own it, populated lazily by
// querying the routing tier and invalidated on server signal.
package routing

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hydro-project/anna-go/internal/protocol"
)

// Querier sends a KeyAddressRequest and waits for the matching
// KeyAddressResponse, hiding the transport/correlator plumbing from
// the cache. pkg/anna supplies the concrete implementation; tests
// supply a fake.
type Querier interface {
	QueryAddresses(ctx context.Context, port int, keys [][]byte) (*protocol.KeyAddressResponse, error)
}

// Cache is the client's per-instance address cache. It is not safe for
// concurrent use without external synchronization; callers run it in
// a single cooperative goroutine per Client.
type Cache struct {
	local   bool
	querier Querier
	rng     *rand.Rand

	entries map[string][]string // key (as string) -> worker endpoints
}

// NewCache constructs an empty address cache. local selects the
// routing-tier port set: one fixed port in local mode, four candidate
// ports otherwise.
func NewCache(querier Querier, local bool, rng *rand.Rand) *Cache {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Cache{
		local:   local,
		querier: querier,
		rng:     rng,
		entries: make(map[string][]string),
	}
}

func (c *Cache) routingPort() int {
	ports := routingPortsCluster
	if c.local {
		ports = routingPortsLocal
	}
	return ports[c.rng.Intn(len(ports))]
}

var (
	routingPortsLocal   = []int{6450}
	routingPortsCluster = []int{6450, 6451, 6452, 6453}
)

// Cached reports whether key currently has an entry, without
// populating one. Callers use this to distinguish a cache hit from a
// miss before calling Lookup, which always returns a usable result
// either way.
func (c *Cache) Cached(key []byte) bool {
	_, ok := c.entries[string(key)]
	return ok
}

// Lookup returns the cached endpoint list for key, querying the
// routing tier on first use. If pickOne is true it returns a single
// uniformly random endpoint (or "", false if the list is empty);
// otherwise it returns the full list. An empty list is cached and
// treated as "not addressable right now" rather than an error.
func (c *Cache) Lookup(ctx context.Context, key []byte, pickOne bool) ([]string, string, bool, error) {
	k := string(key)
	endpoints, ok := c.entries[k]
	if !ok {
		resolved, err := c.query(ctx, key)
		if err != nil {
			return nil, "", false, err
		}
		endpoints = resolved
		c.entries[k] = endpoints
	}

	if !pickOne {
		return endpoints, "", false, nil
	}
	if len(endpoints) == 0 {
		return endpoints, "", false, nil
	}
	return endpoints, endpoints[c.rng.Intn(len(endpoints))], true, nil
}

func (c *Cache) query(ctx context.Context, key []byte) ([]string, error) {
	resp, err := c.querier.QueryAddresses(ctx, c.routingPort(), [][]byte{key})
	if err != nil {
		return nil, fmt.Errorf("routing: querying address for key: %w", err)
	}
	if resp.Error != 0 {
		return []string{}, nil
	}
	var endpoints []string
	for _, entry := range resp.Addresses {
		if string(entry.Key) == string(key) {
			endpoints = append(endpoints, entry.IPs...)
		}
	}
	return endpoints, nil
}

// Size returns the number of keys currently cached.
func (c *Cache) Size() int {
	return len(c.entries)
}

// Invalidate drops the cached entry for key unconditionally.
func (c *Cache) Invalidate(key []byte) {
	delete(c.entries, string(key))
}

// Clear drops every cached entry, for use when a Client shuts down or
// needs to force a full re-resolve.
func (c *Cache) Clear() {
	c.entries = make(map[string][]string)
}
