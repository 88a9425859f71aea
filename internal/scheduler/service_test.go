package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/newsletterhub/crosspromo/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunner is a mock implementation of the matching runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunMatchingForAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestExpression(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	tests := []struct {
		schedule string
		expected string
	}{
		{"daily", "0 0 9 * * *"},
		{"weekly", "0 0 9 * * MON"},
		{"unknown", "0 0 9 * * MON"},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			expr := Expression(tt.schedule)
			assert.Equal(t, tt.expected, expr)
			_, err := parser.Parse(expr)
			assert.NoError(t, err)
		})
	}
}

func TestNewService_InvalidTimeZone(t *testing.T) {
	_, err := NewService(&config.Config{TimeZone: "Nowhere/Special"}, &MockRunner{})
	assert.Error(t, err)
}

func TestService_StartRegistersJob(t *testing.T) {
	runner := &MockRunner{}
	s, err := NewService(&config.Config{MatchSchedule: "daily", TimeZone: "UTC"}, runner)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}

func TestService_RunLogsFailure(t *testing.T) {
	runner := &MockRunner{}
	runner.On("RunMatchingForAll", mock.Anything).Return(errors.New("store down")).Once()

	s, err := NewService(&config.Config{MatchSchedule: "weekly", TimeZone: "UTC"}, runner)
	require.NoError(t, err)

	s.run()

	runner.AssertExpectations(t)
}
