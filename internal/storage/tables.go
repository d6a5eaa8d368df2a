package storage

import (
	"encoding/json"

	"github.com/thirdweb-dev/substrate-sink/internal/common"
)

// Table names, in the order a flush inserts them. Rows reference block.id and call.id,
// so parents are inserted first.
const (
	TableMetadata  = "metadata"
	TableBlock     = "block"
	TableExtrinsic = "extrinsic"
	TableCall      = "call"
	TableEvent     = "event"
	TableWarning   = "warning"
)

// toJSON turns raw JSON into text for a jsonb[] array; empty values become NULL.
func toJSON(v any) any {
	raw, _ := v.(json.RawMessage)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

var MetadataColumns = []Column[common.Metadata]{
	{Name: "spec_version", Type: "integer", Value: func(m *common.Metadata) any { return m.SpecVersion }},
	{Name: "block_height", Type: "integer", Value: func(m *common.Metadata) any { return m.BlockHeight }},
	{Name: "block_hash", Type: "text", Value: func(m *common.Metadata) any { return m.BlockHash }},
	{Name: "hex", Type: "text", Value: func(m *common.Metadata) any { return m.Hex }},
}

var BlockColumns = []Column[common.Block]{
	{Name: "id", Type: "text", Value: func(b *common.Block) any { return b.ID }},
	{Name: "height", Type: "numeric", Value: func(b *common.Block) any {
		if b.Height == nil {
			return nil
		}
		return b.Height.String()
	}},
	{Name: "hash", Type: "text", Value: func(b *common.Block) any { return b.Hash }},
	{Name: "parent_hash", Type: "text", Value: func(b *common.Block) any { return b.ParentHash }},
	{Name: "timestamp", Type: "timestamptz", Value: func(b *common.Block) any { return b.Timestamp }},
	{Name: "spec_version", Type: "integer", Value: func(b *common.Block) any { return b.SpecVersion }},
}

var ExtrinsicColumns = []Column[common.Extrinsic]{
	{Name: "id", Type: "text", Value: func(e *common.Extrinsic) any { return e.ID }},
	{Name: "block_id", Type: "text", Value: func(e *common.Extrinsic) any { return e.BlockID }},
	{Name: "name", Type: "text", Value: func(e *common.Extrinsic) any { return e.Name }},
	{Name: "index_in_block", Type: "integer", Value: func(e *common.Extrinsic) any { return e.IndexInBlock }},
	{Name: "signature", Type: "jsonb", Value: func(e *common.Extrinsic) any { return e.Signature }, Transform: toJSON},
	{Name: "success", Type: "bool", Value: func(e *common.Extrinsic) any { return e.Success }},
	{Name: "hash", Type: "text", Value: func(e *common.Extrinsic) any { return e.Hash }},
	{Name: "call_id", Type: "text", Value: func(e *common.Extrinsic) any { return e.CallID }},
}

var CallColumns = []Column[common.Call]{
	{Name: "id", Type: "text", Value: func(c *common.Call) any { return c.ID }},
	{Name: "index", Type: "integer", Value: func(c *common.Call) any { return c.Index }},
	{Name: "block_id", Type: "text", Value: func(c *common.Call) any { return c.BlockID }},
	{Name: "extrinsic_id", Type: "text", Value: func(c *common.Call) any { return c.ExtrinsicID }},
	{Name: "name", Type: "text", Value: func(c *common.Call) any { return c.Name }},
	{Name: "parent_id", Type: "text", Value: func(c *common.Call) any { return optional(c.ParentID) }},
	{Name: "success", Type: "bool", Value: func(c *common.Call) any { return c.Success }},
	{Name: "args", Type: "jsonb", Value: func(c *common.Call) any { return c.Args }, Transform: toJSON},
}

var EventColumns = []Column[common.Event]{
	{Name: "id", Type: "text", Value: func(e *common.Event) any { return e.ID }},
	{Name: "block_id", Type: "text", Value: func(e *common.Event) any { return e.BlockID }},
	{Name: "phase", Type: "text", Value: func(e *common.Event) any { return e.Phase }},
	{Name: "index_in_block", Type: "integer", Value: func(e *common.Event) any { return e.IndexInBlock }},
	{Name: "name", Type: "text", Value: func(e *common.Event) any { return e.Name }},
	{Name: "extrinsic_id", Type: "text", Value: func(e *common.Event) any { return optional(e.ExtrinsicID) }},
	{Name: "call_id", Type: "text", Value: func(e *common.Event) any { return optional(e.CallID) }},
	{Name: "args", Type: "jsonb", Value: func(e *common.Event) any { return e.Args }, Transform: toJSON},
}

var WarningColumns = []Column[common.Warning]{
	{Name: "block_id", Type: "text", Value: func(w *common.Warning) any { return w.BlockID }},
	{Name: "message", Type: "text", Value: func(w *common.Warning) any { return w.Message }},
}
