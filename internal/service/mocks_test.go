package service

import (
	"context"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/timer"
	"github.com/stretchr/testify/mock"
)

// MockTimers mocks the Timers interface
type MockTimers struct {
	mock.Mock
}

func (m *MockTimers) StartRun(ctx context.Context, task domain.Task) (timer.Entry, bool, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(timer.Entry), args.Bool(1), args.Error(2)
}

func (m *MockTimers) Stop(ctx context.Context, taskID string) (timer.Entry, bool) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(timer.Entry), args.Bool(1)
}

func (m *MockTimers) Get(taskID string) (timer.Entry, bool) {
	args := m.Called(taskID)
	return args.Get(0).(timer.Entry), args.Bool(1)
}

// MockLedger mocks the EnergyLedger interface
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Apply(ctx context.Context, tx domain.EnergyTransaction) ledger.Result {
	args := m.Called(ctx, tx)
	return args.Get(0).(ledger.Result)
}

func (m *MockLedger) State() ledger.State {
	args := m.Called()
	return args.Get(0).(ledger.State)
}

func (m *MockLedger) CheckLimits() ledger.Limits {
	args := m.Called()
	return args.Get(0).(ledger.Limits)
}
