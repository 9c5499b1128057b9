package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// ParseMethodFullName splits "pkg.Service.Method" into its service and method parts.
func ParseMethodFullName(methodFullName string) (string, string, error) {
	if methodFullName == "" {
		return "", "", errors.New("method full name is empty")
	}
	lastDot := strings.LastIndex(methodFullName, ".")
	if lastDot == -1 {
		return "", "", fmt.Errorf("invalid method full name %q: no dot found", methodFullName)
	}
	service, method := methodFullName[:lastDot], methodFullName[lastDot+1:]
	if service == "" || method == "" {
		return "", "", fmt.Errorf("invalid method full name format: %q", methodFullName)
	}
	return service, method, nil
}

// InvokeWithRetry calls methodFullName and decodes the reply into out. Only
// transient failures are retried, with exponential backoff; the error of the
// last attempt is returned converted by api.FromStatus.
func InvokeWithRetry(gRPCClient *client.GRPCClient, methodFullName string, maxRetries uint, in, out any) error {
	service, method, err := ParseMethodFullName(methodFullName)
	if err != nil {
		return err
	}
	path := "/" + service + "/" + method

	backoff := initialBackoff
	for attempt := uint(0); ; attempt++ {
		err = gRPCClient.Conn.Invoke(gRPCClient.Ctx, path, in, out)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return api.FromStatus(err)
		}
		slog.Warn("Retrying gRPC call", "method", methodFullName, "attempt", attempt+1, "maxRetries", maxRetries, "error", err)
		select {
		case <-gRPCClient.Ctx.Done():
			return gRPCClient.Ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// ExtractGRPCField calls a parameterless method and parses the value at
// fieldPath (dot separated) of its Struct reply.
func ExtractGRPCField[T any](gRPCClient *client.GRPCClient, methodFullName string, maxRetries uint, fieldPath string, parse func(*structpb.Value) (T, error)) (T, error) {
	var zero T
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, methodFullName, maxRetries, &emptypb.Empty{}, &reply); err != nil {
		return zero, fmt.Errorf("failed to call %s: %w", methodFullName, err)
	}
	value, err := getNestedField(&reply, fieldPath)
	if err != nil {
		return zero, err
	}
	return parse(value)
}

func getNestedField(s *structpb.Struct, fieldPath string) (*structpb.Value, error) {
	parts := strings.Split(fieldPath, ".")
	current := s
	for i, part := range parts {
		value, ok := current.GetFields()[part]
		if !ok {
			return nil, fmt.Errorf("field '%s' not found in path '%s'", part, fieldPath)
		}
		if i == len(parts)-1 {
			return value, nil
		}
		next := value.GetStructValue()
		if next == nil {
			return nil, fmt.Errorf("field '%s' in path '%s' is not an object", part, fieldPath)
		}
		current = next
	}
	return nil, fmt.Errorf("empty field path")
}
