// Package dispatch resolves a caller-specified target and invokes a named
// operation on it with positional arguments.
//
// Rather than reflecting over a live client object, the dispatcher works
// against a closed set of target kinds (client, chat, contact), each of
// which resolves to a method registry. Unknown operations produce a typed
// *MethodNotFound instead of a runtime reflection failure, trading
// flexibility for compile-time safety. The dispatcher itself does no arity
// or type checking of arguments — a mismatch surfaces as whatever error the
// invoked operation returns.
package dispatch

import (
	"context"
	"log/slog"
)

// Kind is a resolvable target kind.
type Kind string

const (
	KindClient  Kind = "client"
	KindChat    Kind = "chat"
	KindContact Kind = "contact"
)

// Request is a transient dispatch request built from one inbound call.
type Request struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// Invocable is one named operation on a resolved target. Arguments are
// applied positionally, in the order given.
type Invocable func(ctx context.Context, args []any) (any, error)

// MethodSet maps operation names to invocables for one resolved target.
type MethodSet map[string]Invocable

// Resolver resolves a target identifier to its method set. Resolvers for
// the client kind ignore the identifier. A failed or empty lookup returns
// an error, which the dispatcher wraps in *TargetNotFound.
type Resolver func(ctx context.Context, id string) (MethodSet, error)

// Dispatcher routes requests to registered target kinds.
type Dispatcher struct {
	kinds  map[Kind]Resolver
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher. Register resolvers before calling Call.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		kinds:  make(map[Kind]Resolver),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Register binds a resolver to a target kind.
func (d *Dispatcher) Register(kind Kind, r Resolver) {
	d.kinds[kind] = r
}

// Call resolves the request target, looks up the named operation and
// invokes it. The caller is responsible for gating on readiness and for
// sanitizing the result before it leaves the process.
func (d *Dispatcher) Call(ctx context.Context, req Request) (any, error) {
	kind := Kind(req.Type)
	resolve, ok := d.kinds[kind]
	if !ok {
		return nil, &InvalidTargetType{Type: req.Type}
	}

	methods, err := resolve(ctx, req.ID)
	if err != nil {
		return nil, &TargetNotFound{Kind: kind, ID: req.ID, Cause: err}
	}

	fn, ok := methods[req.Method]
	if !ok {
		return nil, &MethodNotFound{Kind: kind, Method: req.Method}
	}

	d.logger.Debug("dispatch", "kind", string(kind), "id", req.ID,
		"method", req.Method, "args", len(req.Args))
	return fn(ctx, req.Args)
}
