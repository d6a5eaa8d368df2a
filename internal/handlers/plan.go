package handlers

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thirdweb-dev/substrate-sink/internal/selection"
)

// Plan is a serializable view of a registry: the selections the decoder has to honour
// and how many handlers sit behind each key.
type Plan struct {
	Pre                      int                     `json:"pre"`
	Post                     int                     `json:"post"`
	Events                   map[string]ListPlan     `json:"events,omitempty"`
	Calls                    map[string]ListPlan     `json:"calls,omitempty"`
	EvmLogs                  map[string][]EvmLogPlan `json:"evmLogs,omitempty"`
	ContractsContractEmitted map[string]ListPlan     `json:"contractsContractEmitted,omitempty"`
}

type ListPlan struct {
	Handlers int            `json:"handlers"`
	Data     selection.Tree `json:"data"`
}

type EvmLogPlan struct {
	Topics [][]common.Hash `json:"topics,omitempty"`
	Data   selection.Tree  `json:"data"`
}

func (r Registry) Plan() Plan {
	p := Plan{
		Pre:                      len(r.Pre),
		Post:                     len(r.Post),
		Events:                   listPlans(r.Events),
		Calls:                    listPlans(r.Calls),
		ContractsContractEmitted: listPlans(r.ContractsContractEmitted),
	}
	if len(r.EvmLogs) > 0 {
		p.EvmLogs = make(map[string][]EvmLogPlan, len(r.EvmLogs))
		for address, entries := range r.EvmLogs {
			plans := make([]EvmLogPlan, len(entries))
			for i, e := range entries {
				plans[i] = EvmLogPlan{Data: e.Data}
				if e.Filter != nil {
					plans[i].Topics = e.Filter.Topics
				}
			}
			p.EvmLogs[address] = plans
		}
	}
	return p
}

func listPlans[H any](m map[string]List[H]) map[string]ListPlan {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]ListPlan, len(m))
	for k, l := range m {
		out[k] = ListPlan{Handlers: len(l.Handlers), Data: l.Data}
	}
	return out
}

var (
	ErrUnknownSection = errors.New("unknown plan section")
	ErrUnknownKey     = errors.New("no handlers registered for key")
)

// Section picks one part of the plan. An empty section returns the whole plan and an
// empty name returns the whole section.
func (p Plan) Section(section, name string) (any, error) {
	switch section {
	case "":
		return p, nil
	case "pre":
		return p.Pre, nil
	case "post":
		return p.Post, nil
	case "events":
		return pick(p.Events, section, name)
	case "calls":
		return pick(p.Calls, section, name)
	case "contractsContractEmitted":
		return pick(p.ContractsContractEmitted, section, name)
	case "evmLogs":
		if name != "" {
			if normalized, err := NormalizeAddress(name); err == nil {
				name = normalized
			}
		}
		return pick(p.EvmLogs, section, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
}

func pick[V any](m map[string]V, section, name string) (any, error) {
	if name == "" {
		if m == nil {
			return map[string]V{}, nil
		}
		return m, nil
	}
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKey, section, name)
	}
	return v, nil
}
