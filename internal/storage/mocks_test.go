package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) Begin(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(Tx)
	return tx, args.Error(1)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Exec(ctx context.Context, query string, args ...any) error {
	return m.Called(ctx, query, args).Error(0)
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

// tables lists the tables Exec was called for, in call order.
func (m *MockTx) tables() []string {
	var tables []string
	for _, c := range m.Calls {
		if c.Method != "Exec" {
			continue
		}
		fields := strings.Fields(c.Arguments.String(1))
		tables = append(tables, fields[2])
	}
	return tables
}

type fakeSpeed struct {
	mu      sync.Mutex
	started int
	stopped []int
}

func (s *fakeSpeed) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
}

func (s *fakeSpeed) Stop(count int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, count)
}

type fakeProgress struct {
	mu    sync.Mutex
	total int
	calls int
}

func (p *fakeProgress) Inc(count int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += count
	p.calls++
}
