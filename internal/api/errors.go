package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/programs"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain tags the ErrorInfo detail attached to ledger gRPC errors.
const ErrorDomain = "mediaproof.ledger"

const (
	ReasonInternal       = "Internal"
	ReasonCanceled       = "Canceled"
	ReasonInvalidRequest = "InvalidRequest"
)

type errorKind struct {
	err    error
	reason string
	grpc   codes.Code
	http   int
}

var errorKinds = []errorKind{
	{models.ErrAlreadyProcessed, "AlreadyProcessed", codes.AlreadyExists, http.StatusConflict},
	{models.ErrAccountInUse, "AccountAlreadyInUse", codes.AlreadyExists, http.StatusConflict},
	{models.ErrAccountNotFound, "AccountNotFound", codes.NotFound, http.StatusNotFound},
	{models.ErrTransactionNotFound, "TransactionNotFound", codes.NotFound, http.StatusNotFound},
	{programs.ErrProgramNotFound, "ProgramNotFound", codes.NotFound, http.StatusNotFound},
	{ledger.ErrBlockhashNotFound, "BlockhashNotFound", codes.FailedPrecondition, http.StatusConflict},
	{ledger.ErrSignatureVerification, "SignatureVerificationFailure", codes.Unauthenticated, http.StatusUnauthorized},
	{ledger.ErrInvalidTransaction, "InvalidTransaction", codes.InvalidArgument, http.StatusBadRequest},
	{ledger.ErrUnsupportedTransaction, "UnsupportedTransaction", codes.InvalidArgument, http.StatusBadRequest},
	{ledger.ErrUnknownProgram, "ProgramAccountNotFound", codes.InvalidArgument, http.StatusBadRequest},
	{ledger.ErrInvalidSignature, "InvalidSignature", codes.InvalidArgument, http.StatusBadRequest},
	{ledger.ErrInvalidAddress, "InvalidAddress", codes.InvalidArgument, http.StatusBadRequest},
	{ledger.ErrInvalidRange, "InvalidRange", codes.InvalidArgument, http.StatusBadRequest},
}

// Classification is how a ledger error is reported on both transports.
type Classification struct {
	Reason     string
	GRPCCode   codes.Code
	HTTPStatus int
	// AnchorCode is set for program and framework errors.
	AnchorCode uint32
	Logs       []string
}

// Classify maps err to its transport representation.
func Classify(err error) Classification {
	var txErr *ledger.TransactionError
	var ae *anchor.Error
	if errors.As(err, &txErr) && errors.As(err, &ae) {
		return Classification{Reason: ae.Name, GRPCCode: codes.Aborted, HTTPStatus: http.StatusUnprocessableEntity, AnchorCode: ae.Code, Logs: txErr.Logs}
	}
	if errors.As(err, &ae) {
		return Classification{Reason: ae.Name, GRPCCode: codes.Aborted, HTTPStatus: http.StatusUnprocessableEntity, AnchorCode: ae.Code}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			c := Classification{Reason: k.reason, GRPCCode: k.grpc, HTTPStatus: k.http}
			if txErr != nil {
				c.Logs = txErr.Logs
			}
			return c
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Classification{Reason: ReasonCanceled, GRPCCode: codes.Canceled, HTTPStatus: 499}
	case errors.Is(err, context.DeadlineExceeded):
		return Classification{Reason: ReasonCanceled, GRPCCode: codes.DeadlineExceeded, HTTPStatus: http.StatusGatewayTimeout}
	}
	if txErr != nil {
		return Classification{Reason: ReasonInternal, GRPCCode: codes.Aborted, HTTPStatus: http.StatusUnprocessableEntity, Logs: txErr.Logs}
	}
	return Classification{Reason: ReasonInternal, GRPCCode: codes.Internal, HTTPStatus: http.StatusInternalServerError}
}

// Status converts err into a gRPC status error carrying an ErrorInfo detail.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	c := Classify(err)
	st := status.New(c.GRPCCode, err.Error())
	info := &errdetails.ErrorInfo{Reason: c.Reason, Domain: ErrorDomain, Metadata: map[string]string{}}
	if c.AnchorCode != 0 {
		info.Metadata["anchor_code"] = strconv.FormatUint(uint64(c.AnchorCode), 10)
	}
	for i, line := range c.Logs {
		info.Metadata[fmt.Sprintf("log_%03d", i)] = line
	}
	if detailed, derr := st.WithDetails(info); derr == nil {
		st = detailed
	}
	return st.Err()
}

// Error is a ledger error received over a transport. It unwraps to the
// matching local sentinel, so errors.Is works on the client side.
type Error struct {
	Code       codes.Code
	Reason     string
	Message    string
	AnchorCode uint32
	Logs       []string
}

// Error returns the server-side message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap maps the reason back to the local anchor error or sentinel.
func (e *Error) Unwrap() error {
	if e.AnchorCode != 0 {
		return &anchor.Error{Code: e.AnchorCode, Name: e.Reason, Msg: e.Message}
	}
	for _, k := range errorKinds {
		if k.reason == e.Reason {
			return k.err
		}
	}
	return nil
}

// FromStatus rebuilds an *Error from a gRPC status error. Errors that are not
// statuses are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}
	out := &Error{Code: st.Code(), Message: st.Message()}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.Domain != ErrorDomain {
			continue
		}
		out.Reason = info.Reason
		if v, ok := info.Metadata["anchor_code"]; ok {
			if code, err := strconv.ParseUint(v, 10, 32); err == nil {
				out.AnchorCode = uint32(code)
			}
		}
		for i := 0; ; i++ {
			line, ok := info.Metadata[fmt.Sprintf("log_%03d", i)]
			if !ok {
				break
			}
			out.Logs = append(out.Logs, line)
		}
	}
	return out
}
