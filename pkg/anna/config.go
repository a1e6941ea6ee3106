// Package anna exposes the client façade: Get, GetAll, Put, PutAll,
// orchestrating the routing cache, request correlator, wire codec and
// transport into the four user-facing operations. Built around a
// top-level constructor-with-Options pattern, New(ctx, Config)
// (*Client, error), wiring together this client's six collaborators.
package anna

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/hydro-project/anna-go/internal/auth"
	"github.com/hydro-project/anna-go/internal/logging"
	"github.com/hydro-project/anna-go/internal/security"
	"github.com/hydro-project/anna-go/internal/transport"
)

// DefaultRequestTimeout bounds how long a blocking operation waits on
// its reply channel before returning transport.ErrTimeout.
const DefaultRequestTimeout = 5 * time.Second

// Config configures a Client. RoutingAddr is the only required field;
// everything else has a documented default.
type Config struct {
	// RoutingAddr is the routing tier's host: either a local loopback
	// address or the address of the cluster's routing-tier load
	// balancer. Do not include a port; the routing cache picks one
	// from the local/cluster port set itself.
	RoutingAddr string

	// IP is this client instance's own address, used to derive its
	// well-known pull endpoints and to tag its request ids. If empty,
	// New infers one via identity.InferLocalIP.
	IP string

	// Local selects the single-port local-mode routing tier instead of
	// the four-port cluster set.
	Local bool

	// ThreadOffset disambiguates multiple client instances sharing one
	// IP.
	ThreadOffset int

	// RequestTimeout bounds every blocking Await. Defaults to
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// RequestIDModulus is the request-id counter's wraparound modulus.
	// Defaults to transport.DefaultRequestIDModulus.
	RequestIDModulus int

	// Logger receives structured logs for notable events (undecodable
	// response payloads, bearer-token minting failures). Defaults to a
	// no-op logger.
	Logger *logging.Logger

	// MetricsRegisterer receives this client's Prometheus collectors.
	// Defaults to a private, unregistered registry.
	MetricsRegisterer prometheus.Registerer

	// TracerProvider supplies the tracer used for spans around Get,
	// GetAll, Put, PutAll and routing lookups. Defaults to the global
	// OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// Authenticator, when set, mints a bearer token attached to every
	// outbound KeyRequest/KeyAddressRequest.
	Authenticator *auth.TokenManager

	// Cipher, when set, seals every KeyTuple payload before it's sent
	// and opens every payload received.
	Cipher *security.PayloadCipher

	// roundTripper overrides the production transport.Pushers with a
	// fake, for tests. Unexported: not part of the public surface.
	roundTripper transport.RoundTripper
}

func (c Config) requestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}
