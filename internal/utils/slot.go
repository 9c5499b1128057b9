package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var maxSlotRangeRe = regexp.MustCompile(`at most (\d+) slots`)

// GetLatestSlotWithRetry gets the current slot from the GetLatestBlockhash endpoint.
func GetLatestSlotWithRetry(gRPCClient *client.GRPCClient, maxRetries uint) (uint64, error) {
	return ExtractGRPCField(
		gRPCClient,
		api.GetLatestBlockhashMethod,
		maxRetries,
		"slot",
		func(v *structpb.Value) (uint64, error) {
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return 0, errors.New("slot is not a number")
			}
			if n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) {
				return 0, errors.Errorf("invalid slot %v", n.NumberValue)
			}
			return uint64(n.NumberValue), nil
		},
	)
}

// GetLatestBlockhashWithRetry returns the blockhash new transactions should reference.
func GetLatestBlockhashWithRetry(gRPCClient *client.GRPCClient, maxRetries uint) (solana.Hash, uint64, error) {
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, api.GetLatestBlockhashMethod, maxRetries, &emptypb.Empty{}, &reply); err != nil {
		return solana.Hash{}, 0, errors.WithMessage(err, "error getting latest blockhash")
	}
	var bh api.Blockhash
	if err := api.FromStruct(&reply, &bh); err != nil {
		return solana.Hash{}, 0, err
	}
	hash, err := solana.HashFromBase58(bh.Blockhash)
	if err != nil {
		return solana.Hash{}, 0, errors.WithMessage(err, "error parsing blockhash")
	}
	return hash, bh.Slot, nil
}

// ParseMaxSlotRangeFromError extracts the server's per-query slot limit from
// an InvalidRange error, e.g. "invalid slot range: at most 1000 slots per query".
// It returns 0 when the message carries no limit.
func ParseMaxSlotRangeFromError(errMsg string) uint64 {
	matches := maxSlotRangeRe.FindStringSubmatch(strings.ToLower(errMsg))
	if len(matches) >= 2 {
		n, err := strconv.ParseUint(matches[1], 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}
