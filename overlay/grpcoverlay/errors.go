package grpcoverlay

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ethportal.io/api/overlay"
)

// mapRPC turns server status codes back into overlay sentinels. Unknown carries the
// collaborator's own error, whose message is kept verbatim.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return overlay.ErrContentNotFound
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", overlay.ErrUnknownPeer, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", overlay.ErrInvalidRequest, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Unknown:
		return errors.New(st.Message())
	default:
		return err
	}
}
