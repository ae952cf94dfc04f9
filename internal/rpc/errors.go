package rpc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/SwapIndexor/internal/common"
)

var (
	tooManyResultsRe = regexp.MustCompile(`Query returned more than \d+ results`)
	blockRangeRe     = regexp.MustCompile(`\[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\]`)
)

// IsTooManyResultsError reports whether err is a provider "too many results" DataError
// and returns the error data so the caller can look for a suggested range.
func IsTooManyResultsError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return false, ""
	}

	data := fmt.Sprintf("%v", dataErr.ErrorData())
	return tooManyResultsRe.MatchString(data), data
}

// ParseSuggestedBlockRange extracts the block range a provider suggests in messages such as
// "Query returned more than 20000 results. Try with this block range [0x7dfd25, 0x7e0fcc].".
func ParseSuggestedBlockRange(msg string) (fromBlock, toBlock uint64, ok bool) {
	matches := blockRangeRe.FindStringSubmatch(msg)
	if len(matches) != 3 { //nolint:mnd
		return 0, 0, false
	}

	from, err := common.ParseBlockNumber(matches[1])
	if err != nil {
		return 0, 0, false
	}
	to, err := common.ParseBlockNumber(matches[2])
	if err != nil {
		return 0, 0, false
	}

	return from, to, true
}

// errorType buckets an error into a low-cardinality metric label.
func errorType(err error) string {
	if ok, _ := IsTooManyResultsError(err); ok {
		return "too_many_results"
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted"):
		return "reverted"
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return "rate_limited"
	case retryableError(err):
		return "transient"
	default:
		return "other"
	}
}
