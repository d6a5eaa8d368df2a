package handlers

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// EvmLogFilter restricts an EVM log subscription by topic. Topics[i] lists the accepted
// values at position i; an empty position matches anything.
type EvmLogFilter struct {
	Topics [][]common.Hash `json:"topics"`
}

// NewEvmLogFilter builds a filter from hex topic sets.
func NewEvmLogFilter(topics ...[]string) (*EvmLogFilter, error) {
	f := &EvmLogFilter{Topics: make([][]common.Hash, len(topics))}
	for i, set := range topics {
		for _, topic := range set {
			raw := strings.TrimPrefix(strings.ToLower(topic), "0x")
			if len(raw) != 2*common.HashLength {
				return nil, fmt.Errorf("topic %d: invalid hash %q", i, topic)
			}
			f.Topics[i] = append(f.Topics[i], common.HexToHash(topic))
		}
	}
	return f, nil
}

// Match reports whether a log with the given topics passes the filter. A nil filter
// matches every log.
func (f *EvmLogFilter) Match(topics []common.Hash) bool {
	if f == nil {
		return true
	}
	if len(f.Topics) > len(topics) {
		// a constrained position past the end of the log's topics can never match
		for _, set := range f.Topics[len(topics):] {
			if len(set) > 0 {
				return false
			}
		}
	}
	for i, set := range f.Topics {
		if len(set) == 0 || i >= len(topics) {
			continue
		}
		found := false
		for _, want := range set {
			if topics[i] == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NormalizeAddress lowercases a hex contract address so registrations made with
// different casings share one key.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid evm contract address %q", address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}
