package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// ErrorKindHeader carries the domain error kind on failed responses.
const ErrorKindHeader = "Error-Kind"

// errorDetails returns the Connect code and domain kind of err.
func errorDetails(err error) (code connect.Code, kind string) {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code(), connectErr.Meta().Get(ErrorKindHeader)
	}
	return connect.CodeUnknown, ""
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, user ID, duration, and any error codes/messages.
// Place it inside RequireAuth so the user ID is known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			userID := GetUserID(ctx)

			resp, err := next(ctx, req)

			duration := time.Since(start).Milliseconds()
			if err != nil {
				code, kind := errorDetails(err)
				level := slog.LevelWarn
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					level = slog.LevelError
				}
				slog.Log(ctx, level, "RPC error",
					"procedure", procedure,
					"code", code,
					"kind", kind,
					"error", err,
					"user_id", userID,
					"duration_ms", duration,
				)
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"user_id", userID,
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}
