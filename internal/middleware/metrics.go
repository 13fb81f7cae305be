package middleware

import (
	"context"
	"path"
	"time"

	"connectrpc.com/connect"
)

// Observer receives RPC measurements. *metrics.Metrics implements it.
type Observer interface {
	ObserveRPC(procedure, code string, elapsed time.Duration)
	ObserveAction(action, outcome string)
}

// MetricsInterceptor records latency, result code and domain outcome of every RPC.
func MetricsInterceptor(obs Observer) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code, outcome := "ok", "ok"
			if err != nil {
				c, kind := errorDetails(err)
				code = c.String()
				outcome = kind
				if outcome == "" {
					// Rejected before reaching a handler, e.g. unauthenticated.
					outcome = code
				}
			}
			obs.ObserveRPC(procedure, code, time.Since(start))
			obs.ObserveAction(path.Base(procedure), outcome)

			return resp, err
		}
	}
}
