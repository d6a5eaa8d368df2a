package common

import (
	"encoding/json"
	"math/big"
	"time"
)

// Block is the header of a block; every other entity references it by ID.
type Block struct {
	ID          string    `json:"id"`
	Height      *big.Int  `json:"height"`
	Hash        string    `json:"hash"`
	ParentHash  string    `json:"parentHash"`
	Timestamp   time.Time `json:"timestamp"`
	SpecVersion int       `json:"specVersion"`
}

// Metadata is the runtime metadata blob, emitted once per spec version.
type Metadata struct {
	SpecVersion int    `json:"specVersion"`
	BlockHeight int64  `json:"blockHeight"`
	BlockHash   string `json:"blockHash"`
	Hex         string `json:"hex"`
}

type Extrinsic struct {
	ID           string          `json:"id"`
	BlockID      string          `json:"blockId"`
	Name         string          `json:"name"`
	IndexInBlock int             `json:"indexInBlock"`
	Signature    json.RawMessage `json:"signature"`
	Success      bool            `json:"success"`
	Hash         string          `json:"hash"`
	CallID       string          `json:"callId"`
}

// Call is one node of the call tree of an extrinsic. ParentID is nil for the root call.
type Call struct {
	ID          string          `json:"id"`
	Index       int             `json:"index"`
	BlockID     string          `json:"blockId"`
	ExtrinsicID string          `json:"extrinsicId"`
	Name        string          `json:"name"`
	ParentID    *string         `json:"parentId"`
	Success     bool            `json:"success"`
	Args        json.RawMessage `json:"args"`
}

type Event struct {
	ID           string          `json:"id"`
	BlockID      string          `json:"blockId"`
	Phase        string          `json:"phase"`
	IndexInBlock int             `json:"indexInBlock"`
	Name         string          `json:"name"`
	ExtrinsicID  *string         `json:"extrinsicId"`
	CallID       *string         `json:"callId"`
	Args         json.RawMessage `json:"args"`
}

type Warning struct {
	BlockID string `json:"blockId"`
	Message string `json:"message"`
}

// BlockData is everything the decoder produced for one block. Last marks the final
// block of a run and forces sinks to flush.
type BlockData struct {
	Header     Block       `json:"header"`
	Metadata   *Metadata   `json:"metadata,omitempty"`
	Extrinsics []Extrinsic `json:"extrinsics"`
	Calls      []Call      `json:"calls"`
	Events     []Event     `json:"events"`
	Warnings   []Warning   `json:"warnings,omitempty"`
	Last       bool        `json:"last"`
}

// RowCount is the number of entity rows the block contributes to a sink.
func (b *BlockData) RowCount() int {
	n := 1 + len(b.Extrinsics) + len(b.Calls) + len(b.Events) + len(b.Warnings)
	if b.Metadata != nil {
		n++
	}
	return n
}
