package storage

import (
	"context"

	"github.com/thirdweb-dev/substrate-sink/internal/common"
)

// Sink receives blocks one at a time, in chain order. Implementations are not safe for
// concurrent Write calls; the pipeline delivers blocks sequentially.
type Sink interface {
	Write(ctx context.Context, block *common.BlockData) error
	Close() error
}

// Conn is a connection able to open transactions.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Execer
	Commit() error
	Rollback() error
}
