package camunda

import (
	"context"
	"fmt"
	"testing"

	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startCall struct {
	processID string
	vars      interface{}
}

type fakeStarter struct {
	calls []startCall
	err   error
}

func (f *fakeStarter) StartProcess(ctx context.Context, processID string, vars interface{}) (int64, error) {
	f.calls = append(f.calls, startCall{processID: processID, vars: vars})
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.calls)), nil
}

func TestFollowups_ApplicationSubmitted(t *testing.T) {
	starter := &fakeStarter{}
	f := NewFollowups(starter, "intake-proc", "screen-proc", logger.NewTestLogger(t))

	f.ApplicationSubmitted(context.Background(), models.Application{
		ID: "app-1", FullName: "Abebe", Email: "a@example.com", PhoneNumber: "0911", Role: "Sales",
	})

	require.Len(t, starter.calls, 1)
	assert.Equal(t, "intake-proc", starter.calls[0].processID)
	vars := starter.calls[0].vars.(ApplicationSubmittedVars)
	assert.Equal(t, "app-1", vars.ApplicationID)
	assert.Equal(t, "Sales", vars.Role)
}

func TestFollowups_ScreeningChangedOnlyForPassed(t *testing.T) {
	starter := &fakeStarter{}
	f := NewFollowups(starter, "intake-proc", "screen-proc", logger.NewNoOpLogger())

	f.ScreeningChanged(context.Background(), []string{"a"}, models.ScreeningFailed)
	f.ScreeningChanged(context.Background(), nil, models.ScreeningPassed)
	assert.Empty(t, starter.calls)

	f.ScreeningChanged(context.Background(), []string{"a", "b"}, models.ScreeningPassed)
	require.Len(t, starter.calls, 1)
	assert.Equal(t, "screen-proc", starter.calls[0].processID)
	assert.Equal(t, []string{"a", "b"}, starter.calls[0].vars.(ScreeningChangedVars).ApplicationIDs)
}

func TestFollowups_StartFailureIsSwallowed(t *testing.T) {
	starter := &fakeStarter{err: fmt.Errorf("unavailable")}
	f := NewFollowups(starter, "intake-proc", "screen-proc", logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		f.ApplicationSubmitted(context.Background(), models.Application{ID: "app-1"})
	})
	assert.Len(t, starter.calls, 1)
}
