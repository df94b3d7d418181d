package allotment

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
)

// ErrorDomain is the ErrorInfo domain of every mapped error.
const ErrorDomain = "allotment.v1"

// errorMapping ties a sentinel error to its status code and reason.
type errorMapping struct {
	err    error
	code   codes.Code
	reason string
}

//nolint:gochecknoglobals // Static lookup table.
var errorMappings = []errorMapping{
	{domain.ErrAlreadyInProgress, codes.FailedPrecondition, "ALREADY_IN_PROGRESS"},
	{domain.ErrNotInProgress, codes.FailedPrecondition, "NOT_IN_PROGRESS"},
	{domain.ErrNotYourTurn, codes.FailedPrecondition, "NOT_YOUR_TURN"},
	{domain.ErrRecoveryRequired, codes.FailedPrecondition, "RECOVERY_REQUIRED"},
	{domain.ErrNotAGroupLeader, codes.PermissionDenied, "NOT_A_GROUP_LEADER"},
	{domain.ErrRoomUnavailableOrMismatched, codes.FailedPrecondition, "ROOM_UNAVAILABLE_OR_MISMATCHED"},
	{domain.ErrNoEligibleGroups, codes.FailedPrecondition, "NO_ELIGIBLE_GROUPS"},
	{domain.ErrDataInconsistency, codes.DataLoss, "DATA_INCONSISTENCY"},
	{domain.ErrCommitFailed, codes.Aborted, "COMMIT_FAILED"},
	{domain.ErrNotFound, codes.NotFound, "NOT_FOUND"},
}

// ToStatus converts a service error into a gRPC status error.
// Unknown errors become codes.Internal without leaking their text.
func ToStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}

		st := status.New(m.code, err.Error())

		detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: m.reason,
			Domain: ErrorDomain,
		})
		if detailErr != nil {
			return st.Err()
		}

		return detailed.Err()
	}

	logger.ErrorKV(ctx, "Internal error", "error", err)

	return status.Error(codes.Internal, "internal error")
}

// RemoteError is a mapped error received from the server.
// It unwraps to the matching sentinel so callers can use errors.Is.
type RemoteError struct {
	// Code is the gRPC status code.
	Code codes.Code
	// Message is the server-side error text.
	Message string

	sentinel error
}

// Error returns the server-side message.
func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap returns the domain sentinel.
func (e *RemoteError) Unwrap() error {
	return e.sentinel
}

// FromStatus converts a gRPC status error back into a domain error when it
// carries a known ErrorInfo reason. Other errors are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}

	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}

		for _, m := range errorMappings {
			if m.reason == info.GetReason() {
				return &RemoteError{Code: st.Code(), Message: st.Message(), sentinel: m.err}
			}
		}
	}

	return err
}
