package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Column declares how one table column is filled from a row of type T.
type Column[T any] struct {
	Name string
	// Type is the postgres element type the bound array is cast to, e.g. "text" for text[].
	Type  string
	Value func(row *T) any
	// Transform is applied to Value's result before it is buffered.
	Transform func(v any) any
}

// Execer runs a statement; both *sql.DB and transactions satisfy it through adapters.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// Buffer is the type-erased view of a ColumnBuffer used by writers that hold buffers for
// different entity types.
type Buffer interface {
	Table() string
	Size() int
	Clear()
	Statement() (string, []any)
	Query(ctx context.Context, conn Execer) error
}

// ColumnBuffer accumulates rows of one entity as parallel per-column slices and inserts
// them with a single unnest statement. All column slices always have the same length.
type ColumnBuffer[T any] struct {
	table   string
	columns []Column[T]
	values  [][]any
	query   string
}

func NewColumnBuffer[T any](table string, columns []Column[T]) *ColumnBuffer[T] {
	b := &ColumnBuffer[T]{
		table:   table,
		columns: columns,
		values:  make([][]any, len(columns)),
	}
	b.query = b.buildStatement()
	return b
}

func (b *ColumnBuffer[T]) Table() string {
	return b.table
}

func (b *ColumnBuffer[T]) ColumnNames() []string {
	names := make([]string, len(b.columns))
	for i, c := range b.columns {
		names[i] = c.Name
	}
	return names
}

func (b *ColumnBuffer[T]) Add(row *T) {
	for i, c := range b.columns {
		v := c.Value(row)
		if c.Transform != nil {
			v = c.Transform(v)
		}
		b.values[i] = append(b.values[i], v)
	}
}

func (b *ColumnBuffer[T]) AddMany(rows []T) {
	for i := range rows {
		b.Add(&rows[i])
	}
}

func (b *ColumnBuffer[T]) Size() int {
	if len(b.values) == 0 {
		return 0
	}
	return len(b.values[0])
}

// Clear drops all rows, keeping the declared columns.
func (b *ColumnBuffer[T]) Clear() {
	for i := range b.values {
		b.values[i] = nil
	}
}

// Column returns the buffered values of the named column, or nil if it is not declared.
func (b *ColumnBuffer[T]) Column(name string) []any {
	for i, c := range b.columns {
		if c.Name == name {
			return b.values[i]
		}
	}
	return nil
}

// Statement returns the insert statement and one array argument per column.
func (b *ColumnBuffer[T]) Statement() (string, []any) {
	args := make([]any, len(b.values))
	for i, v := range b.values {
		args[i] = pq.Array(v)
	}
	return b.query, args
}

// Query inserts the buffered rows through conn. It does nothing when the buffer is empty.
func (b *ColumnBuffer[T]) Query(ctx context.Context, conn Execer) error {
	if b.Size() == 0 {
		return nil
	}
	query, args := b.Statement()
	if err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d rows into %s: %w", b.Size(), b.table, err)
	}
	return nil
}

func (b *ColumnBuffer[T]) buildStatement() string {
	names := strings.Join(b.ColumnNames(), ", ")
	params := make([]string, len(b.columns))
	for i, c := range b.columns {
		params[i] = fmt.Sprintf("$%d::%s[]", i+1, c.Type)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT * FROM unnest(%s) AS i(%s)",
		b.table, names, strings.Join(params, ", "), names)
}

var _ Buffer = (*ColumnBuffer[struct{}])(nil)
