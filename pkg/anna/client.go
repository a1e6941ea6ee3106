package anna

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hydro-project/anna-go/internal/codec"
	"github.com/hydro-project/anna-go/internal/identity"
	"github.com/hydro-project/anna-go/internal/lattice"
	"github.com/hydro-project/anna-go/internal/logging"
	"github.com/hydro-project/anna-go/internal/metrics"
	"github.com/hydro-project/anna-go/internal/protocol"
	"github.com/hydro-project/anna-go/internal/routing"
	"github.com/hydro-project/anna-go/internal/transport"
)

const tracerName = "github.com/hydro-project/anna-go/pkg/anna"

// Client is the user-facing handle on one key-value store client
// instance: one address cache, one request correlator, one pair of
// pull endpoints -- one of everything per instance. A Client is not
// internally synchronized: callers sharing one across goroutines must
// serialize their calls.
type Client struct {
	cfg    Config
	thread identity.Thread

	rt         transport.RoundTripper
	correlator *transport.Correlator
	routing    *routing.Cache

	logger  *logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	pushers        *transport.Pushers
	responsePuller *transport.Puller
	addressPuller  *transport.Puller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Client and binds its two pull endpoints. The
// returned Client owns those sockets; call Close when done with it.
func New(ctx context.Context, cfg Config) (*Client, error) {
	ip := cfg.IP
	if ip == "" {
		inferred, err := identity.InferLocalIP()
		if err != nil {
			return nil, fmt.Errorf("anna: no IP configured and inference failed: %w", err)
		}
		ip = inferred
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Noop()
	}
	var met *metrics.Metrics
	if cfg.MetricsRegisterer != nil {
		met = metrics.New(cfg.MetricsRegisterer)
	} else {
		met = metrics.Noop()
	}
	tracerProvider := cfg.TracerProvider
	var tracer trace.Tracer
	if tracerProvider != nil {
		tracer = tracerProvider.Tracer(tracerName)
	} else {
		tracer = otel.Tracer(tracerName)
	}

	thread := identity.NewThread(ip, cfg.ThreadOffset)
	correlator := transport.NewCorrelator(ip, cfg.RequestIDModulus)

	c := &Client{
		cfg:        cfg,
		thread:     thread,
		correlator: correlator,
		logger:     logger,
		metrics:    met,
		tracer:     tracer,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if cfg.roundTripper != nil {
		c.rt = cfg.roundTripper
	} else {
		pushers := transport.NewPushers()
		c.pushers = pushers
		c.rt = pushers

		responsePuller, err := transport.Listen(thread.RequestPullBindAddr())
		if err != nil {
			cancel()
			return nil, fmt.Errorf("anna: binding request-response pull endpoint: %w", err)
		}
		c.responsePuller = responsePuller

		addressPuller, err := transport.Listen(thread.KeyAddressBindAddr())
		if err != nil {
			cancel()
			responsePuller.Close()
			return nil, fmt.Errorf("anna: binding routing-response pull endpoint: %w", err)
		}
		c.addressPuller = addressPuller

		c.wg.Add(2)
		go func() {
			defer c.wg.Done()
			responsePuller.Run(runCtx, decodeKeyResponse, func(msg any) {
				resp := msg.(*protocol.KeyResponse)
				c.correlator.Deliver(resp.ResponseID, resp)
			})
		}()
		go func() {
			defer c.wg.Done()
			addressPuller.Run(runCtx, decodeKeyAddressResponse, func(msg any) {
				resp := msg.(*protocol.KeyAddressResponse)
				c.correlator.Deliver(resp.ResponseID, resp)
			})
		}()
	}

	c.routing = routing.NewCache(c, cfg.Local, rand.New(rand.NewSource(time.Now().UnixNano())))
	return c, nil
}

func decodeKeyResponse(data []byte) (any, error) {
	var resp protocol.KeyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeKeyAddressResponse(data []byte) (any, error) {
	var resp protocol.KeyAddressResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResponseAddress is the connect-form address a peer uses to reach
// this client's request-response pull endpoint.
func (c *Client) ResponseAddress() string {
	return c.thread.RequestPullConnectAddr()
}

// Close tears down this client's sockets and discards every routing
// cache entry.
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()

	var firstErr error
	if c.pushers != nil {
		if err := c.pushers.Close(); err != nil {
			firstErr = err
		}
	}
	if c.responsePuller != nil {
		if err := c.responsePuller.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.addressPuller != nil {
		if err := c.addressPuller.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.routing != nil {
		c.routing.Clear()
	}
	return firstErr
}

// QueryAddresses implements routing.Querier by sending a
// KeyAddressRequest to the routing tier on port and awaiting its
// reply.
func (c *Client) QueryAddresses(ctx context.Context, port int, keys [][]byte) (*protocol.KeyAddressResponse, error) {
	ctx, span := c.tracer.Start(ctx, "anna.QueryAddresses")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	reqID := c.correlator.NextRequestID()
	req := protocol.KeyAddressRequest{
		RequestID:       reqID,
		ResponseAddress: c.thread.KeyAddressConnectAddr(),
		Keys:            keys,
		Token:           c.authToken(),
	}

	dst := fmt.Sprintf("tcp://%s:%d", c.cfg.RoutingAddr, port)
	if err := c.rt.Send(ctx, dst, req); err != nil {
		return nil, fmt.Errorf("anna: sending routing query: %w", err)
	}

	results, err := c.correlator.Await(ctx, []string{reqID})
	if err != nil {
		return nil, err
	}
	resp, ok := results[reqID].(*protocol.KeyAddressResponse)
	if !ok {
		return nil, fmt.Errorf("anna: routing tier returned an unexpected response shape")
	}
	return resp, nil
}

func (c *Client) authToken() string {
	if c.cfg.Authenticator == nil {
		return ""
	}
	token, err := c.cfg.Authenticator.GenerateToken(c.correlator.InstanceID())
	if err != nil {
		c.logger.WithError(err).Warn("anna: minting bearer token failed, sending request unauthenticated")
		return ""
	}
	return token
}

func (c *Client) buildRequest(id string, typ protocol.RequestType, tuples []protocol.KeyTuple) protocol.KeyRequest {
	return protocol.KeyRequest{
		RequestID:       id,
		ResponseAddress: c.ResponseAddress(),
		Type:            typ,
		Tuples:          tuples,
		Token:           c.authToken(),
	}
}

// encodeValue serializes value through the wire codec, wrapping the
// payload with cfg.Cipher when one is configured.
func (c *Client) encodeValue(key []byte, value lattice.Lattice) (protocol.KeyTuple, error) {
	payload, kind, err := codec.Serialize(value)
	if err != nil {
		return protocol.KeyTuple{}, fmt.Errorf("anna: serializing value for key %q: %w", key, err)
	}
	wireType, err := protocol.FromKind(kind)
	if err != nil {
		return protocol.KeyTuple{}, fmt.Errorf("anna: mapping lattice kind to wire type: %w", err)
	}
	if c.cfg.Cipher != nil {
		payload, err = c.cfg.Cipher.Seal(payload)
		if err != nil {
			return protocol.KeyTuple{}, fmt.Errorf("anna: sealing payload for key %q: %w", key, err)
		}
	}
	return protocol.KeyTuple{Key: key, LatticeType: wireType, Payload: payload, AddressCacheSize: uint32(c.routing.Size())}, nil
}

// decodeValue is the inverse of encodeValue, applied to a response
// tuple that reported NO_ERROR.
func (c *Client) decodeValue(tup protocol.KeyTuple) (lattice.Lattice, error) {
	kind, err := protocol.ToKind(tup.LatticeType)
	if err != nil {
		return nil, fmt.Errorf("anna: decoding lattice_type for key %q: %w", tup.Key, err)
	}
	payload := tup.Payload
	if c.cfg.Cipher != nil {
		payload, err = c.cfg.Cipher.Open(payload)
		if err != nil {
			return nil, fmt.Errorf("anna: opening sealed payload for key %q: %w", tup.Key, err)
		}
	}
	return codec.Deserialize(payload, kind)
}

func (c *Client) observeLatency(operation string, start time.Time) {
	c.metrics.RequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func keyAttr(key []byte) attribute.KeyValue {
	return attribute.String("anna.key", string(key))
}
