package anna

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hydro-project/anna-go/internal/lattice"
	"github.com/hydro-project/anna-go/internal/protocol"
)

// Get resolves each key to one replica endpoint and returns the
// decoded value for every key that answered without error. A key
// whose endpoint couldn't be resolved, or whose reply carried an
// error, maps to a nil Lattice.
func (c *Client) Get(ctx context.Context, keys ...[]byte) (map[string]lattice.Lattice, error) {
	ctx, span := c.tracer.Start(ctx, "anna.Get")
	defer span.End()
	start := time.Now()
	defer c.observeLatency("get", start)
	c.metrics.GetRequests.Inc()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	result := make(map[string]lattice.Lattice, len(keys))
	for _, key := range keys {
		result[string(key)] = nil
	}

	idToKey := make(map[string][]byte, len(keys))
	for _, key := range keys {
		c.noteCacheLookup(key)
		_, endpoint, ok, err := c.routing.Lookup(ctx, key, true)
		if err != nil {
			return nil, fmt.Errorf("anna: resolving endpoint for key %q: %w", key, err)
		}
		if !ok {
			c.metrics.UnaddressableKeys.Inc()
			continue
		}

		reqID := c.correlator.NextRequestID()
		req := c.buildRequest(reqID, protocol.RequestGet, []protocol.KeyTuple{{Key: key, AddressCacheSize: uint32(c.routing.Size())}})
		if err := c.rt.Send(ctx, endpoint, req); err != nil {
			return nil, fmt.Errorf("anna: sending get request for key %q: %w", key, err)
		}
		idToKey[reqID] = key
	}

	if len(idToKey) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(idToKey))
	for id := range idToKey {
		ids = append(ids, id)
	}
	responses, err := c.correlator.Await(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, msg := range responses {
		resp, ok := msg.(*protocol.KeyResponse)
		if !ok {
			continue
		}
		for _, tup := range resp.Tuples {
			c.applyInvalidate(tup)
			if tup.Error != protocol.ErrorNone {
				c.metrics.ServerErrors.Inc()
				continue
			}
			val, err := c.decodeValue(tup)
			if err != nil {
				c.logger.WithError(err).Warn("anna: dropping get response with undecodable payload")
				continue
			}
			result[string(tup.Key)] = val
		}
	}
	return result, nil
}

// GetAll contacts every cached replica endpoint for each key and
// merges their responses with the lattice's own Merge, a
// quorum-convergent read. A key for which no replica answered without
// error maps to a nil Lattice.
func (c *Client) GetAll(ctx context.Context, keys ...[]byte) (map[string]lattice.Lattice, error) {
	ctx, span := c.tracer.Start(ctx, "anna.GetAll")
	defer span.End()
	start := time.Now()
	defer c.observeLatency("get_all", start)
	c.metrics.GetAllRequests.Inc()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	result := make(map[string]lattice.Lattice, len(keys))
	for _, key := range keys {
		result[string(key)] = nil
	}

	idToKey := make(map[string][]byte)
	for _, key := range keys {
		c.noteCacheLookup(key)
		endpoints, _, _, err := c.routing.Lookup(ctx, key, false)
		if err != nil {
			return nil, fmt.Errorf("anna: resolving endpoints for key %q: %w", key, err)
		}
		if len(endpoints) == 0 {
			c.metrics.UnaddressableKeys.Inc()
			continue
		}
		for _, endpoint := range endpoints {
			reqID := c.correlator.NextRequestID()
			req := c.buildRequest(reqID, protocol.RequestGet, []protocol.KeyTuple{{Key: key, AddressCacheSize: uint32(c.routing.Size())}})
			if err := c.rt.Send(ctx, endpoint, req); err != nil {
				return nil, fmt.Errorf("anna: sending get_all request for key %q: %w", key, err)
			}
			idToKey[reqID] = key
		}
	}

	if len(idToKey) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(idToKey))
	for id := range idToKey {
		ids = append(ids, id)
	}
	responses, err := c.correlator.Await(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, msg := range responses {
		resp, ok := msg.(*protocol.KeyResponse)
		if !ok {
			continue
		}
		for _, tup := range resp.Tuples {
			c.applyInvalidate(tup)
			if tup.Error != protocol.ErrorNone {
				c.metrics.ServerErrors.Inc()
				continue
			}
			val, err := c.decodeValue(tup)
			if err != nil {
				c.logger.WithError(err).Warn("anna: dropping get_all response with undecodable payload")
				continue
			}
			k := string(tup.Key)
			if existing := result[k]; existing != nil {
				if err := existing.Merge(val); err != nil {
					return nil, fmt.Errorf("anna: merging get_all responses for key %q: %w", tup.Key, err)
				}
			} else {
				result[k] = val
			}
		}
	}
	return result, nil
}

// Put resolves one replica endpoint for key, sends a single PUT
// request, and reports whether the server accepted it without error.
func (c *Client) Put(ctx context.Context, key []byte, value lattice.Lattice) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "anna.Put", trace.WithAttributes(keyAttr(key)))
	defer span.End()
	start := time.Now()
	defer c.observeLatency("put", start)
	c.metrics.PutRequests.Inc()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	c.noteCacheLookup(key)
	_, endpoint, ok, err := c.routing.Lookup(ctx, key, true)
	if err != nil {
		return false, fmt.Errorf("anna: resolving endpoint for key %q: %w", key, err)
	}
	if !ok {
		c.metrics.UnaddressableKeys.Inc()
		return false, nil
	}

	tup, err := c.encodeValue(key, value)
	if err != nil {
		return false, err
	}

	reqID := c.correlator.NextRequestID()
	req := c.buildRequest(reqID, protocol.RequestPut, []protocol.KeyTuple{tup})
	if err := c.rt.Send(ctx, endpoint, req); err != nil {
		return false, fmt.Errorf("anna: sending put request for key %q: %w", key, err)
	}

	responses, err := c.correlator.Await(ctx, []string{reqID})
	if err != nil {
		return false, err
	}
	resp, ok := responses[reqID].(*protocol.KeyResponse)
	if !ok || len(resp.Tuples) == 0 {
		return false, fmt.Errorf("anna: malformed put response for key %q", key)
	}

	respTup := resp.Tuples[0]
	c.applyInvalidate(respTup)
	if respTup.Error != protocol.ErrorNone {
		c.metrics.ServerErrors.Inc()
		return false, nil
	}
	return true, nil
}

// PutAll fans a PUT out to every replica endpoint for key, and on a
// server invalidate signal re-issues the whole call exactly once
// before giving up -- a durable put.
func (c *Client) PutAll(ctx context.Context, key []byte, value lattice.Lattice) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "anna.PutAll", trace.WithAttributes(keyAttr(key)))
	defer span.End()
	start := time.Now()
	defer c.observeLatency("put_all", start)
	c.metrics.PutAllRequests.Inc()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	return c.putAllOnce(ctx, key, value, true)
}

func (c *Client) putAllOnce(ctx context.Context, key []byte, value lattice.Lattice, allowRetry bool) (bool, error) {
	c.noteCacheLookup(key)
	endpoints, _, _, err := c.routing.Lookup(ctx, key, false)
	if err != nil {
		return false, fmt.Errorf("anna: resolving endpoints for key %q: %w", key, err)
	}
	if len(endpoints) == 0 {
		c.metrics.UnaddressableKeys.Inc()
		return false, nil
	}

	tup, err := c.encodeValue(key, value)
	if err != nil {
		return false, err
	}

	ids := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		reqID := c.correlator.NextRequestID()
		req := c.buildRequest(reqID, protocol.RequestPut, []protocol.KeyTuple{tup})
		if err := c.rt.Send(ctx, endpoint, req); err != nil {
			return false, fmt.Errorf("anna: sending put_all request for key %q: %w", key, err)
		}
		ids = append(ids, reqID)
	}

	responses, err := c.correlator.Await(ctx, ids)
	if err != nil {
		return false, err
	}

	for _, msg := range responses {
		resp, ok := msg.(*protocol.KeyResponse)
		if !ok || len(resp.Tuples) == 0 {
			continue
		}
		respTup := resp.Tuples[0]
		if respTup.Invalidate {
			c.routing.Invalidate(respTup.Key)
			c.metrics.CacheInvalidations.Inc()
			if allowRetry {
				c.metrics.PutAllRetries.Inc()
				return c.putAllOnce(ctx, key, value, false)
			}
			continue
		}
		if respTup.Error != protocol.ErrorNone {
			c.metrics.ServerErrors.Inc()
			return false, nil
		}
	}
	return true, nil
}

// applyInvalidate drops the routing cache entry for tup's key when the
// server set the invalidate flag, as every operation except put_all
// does on its own tuples; put_all's variant, with its retry, lives in
// putAllOnce.
func (c *Client) applyInvalidate(tup protocol.KeyTuple) {
	if !tup.Invalidate {
		return
	}
	c.routing.Invalidate(tup.Key)
	c.metrics.CacheInvalidations.Inc()
}

// noteCacheLookup records a hit/miss counter for a Lookup about to
// happen on key, keeping cache-effectiveness metrics next to the
// cache's actual access point.
func (c *Client) noteCacheLookup(key []byte) {
	if c.routing.Cached(key) {
		c.metrics.CacheHits.Inc()
	} else {
		c.metrics.CacheMisses.Inc()
	}
}
