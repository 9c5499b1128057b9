package utils

import (
	"context"
	"testing"

	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func createTestStruct(t *testing.T) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{
		"slot": 12345,
		"block": map[string]any{
			"header": map[string]any{
				"slot":     67890,
				"chain_id": "test-chain",
			},
		},
	})
	require.NoError(t, err)
	return s
}

func TestGetNestedField(t *testing.T) {
	s := createTestStruct(t)

	cases := []struct {
		name      string
		fieldPath string
		wantValue any
		wantErr   string
	}{
		{
			name:      "flat field",
			fieldPath: "slot",
			wantValue: float64(12345),
		},
		{
			name:      "nested field - two levels",
			fieldPath: "block.header",
		},
		{
			name:      "nested field - three levels",
			fieldPath: "block.header.slot",
			wantValue: float64(67890),
		},
		{
			name:      "nested field - different leaf",
			fieldPath: "block.header.chain_id",
			wantValue: "test-chain",
		},
		{
			name:      "non-existent field",
			fieldPath: "nonexistent",
			wantErr:   "field 'nonexistent' not found",
		},
		{
			name:      "non-existent nested field",
			fieldPath: "block.nonexistent",
			wantErr:   "field 'nonexistent' not found",
		},
		{
			name:      "navigate beyond non-object field",
			fieldPath: "slot.something",
			wantErr:   "is not an object",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			val, err := getNestedField(s, tc.fieldPath)
			if tc.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				assert.NoError(t, err)
				if tc.wantValue != nil {
					assert.Equal(t, tc.wantValue, val.AsInterface())
				} else {
					assert.NotNil(t, val.GetStructValue())
				}
			}
		})
	}
}

func TestParseMethodFullName(t *testing.T) {
	cases := []struct {
		name           string
		methodFullName string
		wantService    string
		wantMethod     string
		wantErr        string
	}{
		{
			name:           "standard format",
			methodFullName: "mediaproof.ledger.v1.Ledger.SendTransaction",
			wantService:    "mediaproof.ledger.v1.Ledger",
			wantMethod:     "SendTransaction",
		},
		{
			name:           "simple format",
			methodFullName: "service.Method",
			wantService:    "service",
			wantMethod:     "Method",
		},
		{
			name:           "empty string",
			methodFullName: "",
			wantErr:        "method full name is empty",
		},
		{
			name:           "no dot",
			methodFullName: "InvalidMethod",
			wantErr:        "no dot found",
		},
		{
			name:           "empty service",
			methodFullName: ".Method",
			wantErr:        "invalid method full name format",
		},
		{
			name:           "empty method",
			methodFullName: "service.",
			wantErr:        "invalid method full name format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, method, err := ParseMethodFullName(tc.methodFullName)
			if tc.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantService, service)
				assert.Equal(t, tc.wantMethod, method)
			}
		})
	}
}

// fakeConn answers Invoke from a queue of errors, then with reply.
type fakeConn struct {
	errs  []error
	reply *structpb.Struct
	calls int
	paths []string
}

func (f *fakeConn) Invoke(_ context.Context, method string, _, reply any, _ ...grpc.CallOption) error {
	f.calls++
	f.paths = append(f.paths, method)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	proto.Merge(reply.(proto.Message), f.reply)
	return nil
}

func (f *fakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, status.Error(codes.Unimplemented, "no streams")
}

func TestInvokeWithRetry(t *testing.T) {
	reply, err := structpb.NewStruct(map[string]any{"blockhash": "x", "slot": 42})
	require.NoError(t, err)

	t.Run("retries transient failures", func(t *testing.T) {
		conn := &fakeConn{errs: []error{status.Error(codes.Unavailable, "down")}, reply: reply}
		slot, err := GetLatestSlotWithRetry(&client.GRPCClient{Conn: conn, Ctx: context.Background()}, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), slot)
		assert.Equal(t, 2, conn.calls)
		assert.Equal(t, "/mediaproof.ledger.v1.Ledger/GetLatestBlockhash", conn.paths[0])
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		conn := &fakeConn{errs: []error{
			status.Error(codes.Unavailable, "down"),
			status.Error(codes.Unavailable, "still down"),
		}, reply: reply}
		_, err := GetLatestSlotWithRetry(&client.GRPCClient{Conn: conn, Ctx: context.Background()}, 1)
		assert.Error(t, err)
		assert.Equal(t, 2, conn.calls)
	})

	t.Run("does not retry ledger errors", func(t *testing.T) {
		conn := &fakeConn{errs: []error{api.Status(models.ErrAlreadyProcessed)}, reply: reply}
		var out structpb.Struct
		err := InvokeWithRetry(&client.GRPCClient{Conn: conn, Ctx: context.Background()}, api.SendTransactionMethod, 5, &structpb.Struct{}, &out)
		assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
		assert.Equal(t, 1, conn.calls)
	})
}

func TestParseMaxSlotRangeFromError(t *testing.T) {
	assert.Equal(t, uint64(1000), ParseMaxSlotRangeFromError("invalid slot range: at most 1000 slots per query"))
	assert.Equal(t, uint64(0), ParseMaxSlotRangeFromError("invalid slot range: from 5 is after to 1"))
}
