package timer

import (
	"context"
	"sync"

	"github.com/phrazzld/tempo/internal/job"
	"github.com/stretchr/testify/mock"
)

// MockSessionClient is a testify mock of SessionClient.
type MockSessionClient struct {
	mock.Mock
}

func (m *MockSessionClient) StartSession(ctx context.Context, req StartSessionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockSessionClient) EndSession(ctx context.Context, req EndSessionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// inlineSubmitter runs jobs synchronously on the caller's goroutine.
type inlineSubmitter struct{}

func (inlineSubmitter) Submit(j job.Job) error {
	return j.Execute(context.Background())
}

// heldSubmitter keeps jobs until the test releases them.
type heldSubmitter struct {
	mu   sync.Mutex
	jobs []job.Job
}

func (s *heldSubmitter) Submit(j job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
	return nil
}

// runAll executes held jobs, including any they submit, until none remain.
func (s *heldSubmitter) runAll() {
	for {
		s.mu.Lock()
		if len(s.jobs) == 0 {
			s.mu.Unlock()
			return
		}
		j := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.mu.Unlock()
		_ = j.Execute(context.Background())
	}
}

func (s *heldSubmitter) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
