package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
	"github.com/thirdweb-dev/substrate-sink/internal/selection"
)

type BlockHandler func(ctx context.Context, block *common.BlockData) error

type EventHandler func(ctx context.Context, block *common.Block, event *common.Event) error

type CallHandler func(ctx context.Context, block *common.Block, call *common.Call) error

type EvmLogHandler func(ctx context.Context, block *common.Block, event *common.Event) error

type ContractEmittedHandler func(ctx context.Context, block *common.Block, event *common.Event) error

// List groups the handlers registered under one key. They share a single selection.
type List[H any] struct {
	Data     selection.Tree
	Handlers []H
}

// EvmLogEntry is an independent EVM log subscription. Entries for the same address are
// never merged with each other, each keeps its own filter and selection.
type EvmLogEntry struct {
	Filter  *EvmLogFilter
	Data    selection.Tree
	Handler EvmLogHandler
}

// Registry is the full set of handlers of one module, or of the merged plan.
type Registry struct {
	Pre                      []BlockHandler
	Post                     []BlockHandler
	Events                   map[string]List[EventHandler]
	Calls                    map[string]List[CallHandler]
	EvmLogs                  map[string][]EvmLogEntry
	ContractsContractEmitted map[string]List[ContractEmittedHandler]
}

func NewRegistry() *Registry {
	return &Registry{
		Events:                   make(map[string]List[EventHandler]),
		Calls:                    make(map[string]List[CallHandler]),
		EvmLogs:                  make(map[string][]EvmLogEntry),
		ContractsContractEmitted: make(map[string]List[ContractEmittedHandler]),
	}
}

func (r *Registry) AddPre(h BlockHandler) *Registry {
	r.Pre = append(r.Pre, h)
	return r
}

func (r *Registry) AddPost(h BlockHandler) *Registry {
	r.Post = append(r.Post, h)
	return r
}

// AddEvent registers h for the named event, merging data into the selection of the key.
func (r *Registry) AddEvent(name string, data selection.Tree, h EventHandler) *Registry {
	r.Events = addToList(r.Events, name, data, h)
	return r
}

func (r *Registry) AddCall(name string, data selection.Tree, h CallHandler) *Registry {
	r.Calls = addToList(r.Calls, name, data, h)
	return r
}

func (r *Registry) AddContractEmitted(contract string, data selection.Tree, h ContractEmittedHandler) *Registry {
	r.ContractsContractEmitted = addToList(r.ContractsContractEmitted, contract, data, h)
	return r
}

// AddEvmLog registers an EVM log subscription for a hex contract address.
func (r *Registry) AddEvmLog(address string, entry EvmLogEntry) error {
	key, err := NormalizeAddress(address)
	if err != nil {
		return err
	}
	if r.EvmLogs == nil {
		r.EvmLogs = make(map[string][]EvmLogEntry)
	}
	r.EvmLogs[key] = concat(r.EvmLogs[key], []EvmLogEntry{entry})
	return nil
}

func addToList[H any](m map[string]List[H], key string, data selection.Tree, h H) map[string]List[H] {
	if m == nil {
		m = make(map[string]List[H])
	}
	m[key] = mergeList(m[key], List[H]{Data: data, Handlers: []H{h}}, true)
	return m
}

// Merge combines two registries into one plan. Handler order is preserved with every
// handler of a running before those of b.
func Merge(a, b Registry) Registry {
	return Registry{
		Pre:                      concat(a.Pre, b.Pre),
		Post:                     concat(a.Post, b.Post),
		Events:                   mergeKeyed(a.Events, b.Events, mergeLists[EventHandler]),
		Calls:                    mergeKeyed(a.Calls, b.Calls, mergeLists[CallHandler]),
		EvmLogs:                  mergeKeyed(a.EvmLogs, b.EvmLogs, concat[EvmLogEntry]),
		ContractsContractEmitted: mergeKeyed(a.ContractsContractEmitted, b.ContractsContractEmitted, mergeLists[ContractEmittedHandler]),
	}
}

// MergeAll folds Merge over regs from left to right. The result never shares maps or
// handler slices with its inputs, even for a single registry.
func MergeAll(regs ...Registry) Registry {
	var merged Registry
	for _, r := range regs {
		merged = Merge(merged, r)
	}
	return merged
}

// clone copies the maps and slices of r so later Add calls on either side stay local.
func (r Registry) clone() Registry {
	return Merge(Registry{}, r)
}

func mergeLists[H any](a, b List[H]) List[H] {
	return mergeList(a, b, false)
}

// mergeList concatenates handlers and merges selections. When first is set, a is a
// not-yet-populated list and b's selection is taken as is.
func mergeList[H any](a, b List[H], first bool) List[H] {
	data := b.Data
	if !first || len(a.Handlers) > 0 {
		data = selection.MergeSelection(a.Data, b.Data)
	}
	return List[H]{
		Data:     data,
		Handlers: concat(a.Handlers, b.Handlers),
	}
}

// mergeKeyed merges two keyed categories. Keys defined on one side only are taken
// unchanged, keys defined on both sides are combined with merge(a[k], b[k]).
func mergeKeyed[V any](a, b map[string]V, merge func(V, V) V) map[string]V {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]V, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, bv := range b {
		if av, ok := out[k]; ok {
			out[k] = merge(av, bv)
		} else {
			out[k] = bv
		}
	}
	return out
}

func concat[T any](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

type module struct {
	name     string
	registry Registry
}

var (
	modulesMu sync.Mutex
	modules   []module
)

// Register makes a handler module part of the merged plan. It is meant to be called from
// init functions and panics on duplicate names, like database/sql drivers.
func Register(name string, r *Registry) {
	modulesMu.Lock()
	defer modulesMu.Unlock()

	if r == nil {
		panic("handlers: Register registry is nil")
	}
	for _, m := range modules {
		if m.name == name {
			panic(fmt.Sprintf("handlers: Register called twice for module %s", name))
		}
	}
	modules = append(modules, module{name: name, registry: r.clone()})
}

// Modules returns the names of the registered modules in registration order.
func Modules() []string {
	modulesMu.Lock()
	defer modulesMu.Unlock()

	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.name
	}
	return names
}

// Registered merges every registered module, in registration order, into one plan.
func Registered() Registry {
	modulesMu.Lock()
	regs := make([]Registry, len(modules))
	for i, m := range modules {
		regs[i] = m.registry
	}
	modulesMu.Unlock()

	merged := MergeAll(regs...)
	log.Debug().Int("modules", len(regs)).Int("events", len(merged.Events)).Int("calls", len(merged.Calls)).Msg("Merged handler modules")
	return merged
}
