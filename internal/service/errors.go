package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/dinevote/internal/middleware"
	"github.com/mmynk/dinevote/internal/models"
)

var errUnauthenticated = errors.New("authentication required")

// codes maps error kinds to Connect codes. Conflict is the only retryable one.
var codes = map[string]connect.Code{
	models.KindNotFound:           connect.CodeNotFound,
	models.KindForbidden:          connect.CodePermissionDenied,
	models.KindInvalidState:       connect.CodeFailedPrecondition,
	models.KindPreconditionFailed: connect.CodeFailedPrecondition,
	models.KindValidation:         connect.CodeInvalidArgument,
	models.KindConflict:           connect.CodeAborted,
}

// toConnectError converts an engine error into a Connect error carrying the
// exact kind in the Error-Kind header.
func toConnectError(procedure string, err error) *connect.Error {
	kind := models.KindOf(err)

	code, ok := codes[kind]
	if !ok {
		code = connect.CodeInternal
	}

	var cerr *connect.Error
	if code == connect.CodeInternal {
		slog.Error(procedure+" failed", "error", err)
		cerr = connect.NewError(code, errors.New("internal error"))
	} else {
		slog.Warn(procedure+" rejected", "kind", kind, "error", err)
		cerr = connect.NewError(code, err)
	}
	cerr.Meta().Set(middleware.ErrorKindHeader, kind)
	return cerr
}

// ErrorKind returns the domain error kind of an error returned by
// PlanServiceClient, falling back to the Connect code when the server did
// not send one. Returns "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return models.KindInternal
	}
	if kind := cerr.Meta().Get(middleware.ErrorKindHeader); kind != "" {
		return kind
	}
	for kind, code := range codes {
		// FailedPrecondition is ambiguous; invalid_state is the common case.
		if code == cerr.Code() && kind != models.KindPreconditionFailed {
			return kind
		}
	}
	return cerr.Code().String()
}

// IsRetryable reports whether the client may retry the same call unchanged.
func IsRetryable(err error) bool {
	return ErrorKind(err) == models.KindConflict
}
