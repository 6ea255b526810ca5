// internal/workers/intake/index-application/handler_test.go
package indexapplication

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/observability"
	"talent-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLoader struct {
	GetApplicationFunc func(ctx context.Context, id string) (*models.Application, error)
}

func (m *MockLoader) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return m.GetApplicationFunc(ctx, id)
}

type MockIndexer struct {
	IndexFunc func(ctx context.Context, app models.Application) error
	indexed   []models.Application
}

func (m *MockIndexer) Index(ctx context.Context, app models.Application) error {
	m.indexed = append(m.indexed, app)
	if m.IndexFunc != nil {
		return m.IndexFunc(ctx, app)
	}
	return nil
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) { tl.t.Logf("DEBUG: %s %v", msg, fields) }
func (tl *testLogger) Info(msg string, fields map[string]interface{})  { tl.t.Logf("INFO: %s %v", msg, fields) }
func (tl *testLogger) Warn(msg string, fields map[string]interface{})  { tl.t.Logf("WARN: %s %v", msg, fields) }
func (tl *testLogger) Error(msg string, fields map[string]interface{}) { tl.t.Logf("ERROR: %s %v", msg, fields) }
func (tl *testLogger) WithFields(map[string]interface{}) logger.Logger { return tl }
func (tl *testLogger) WithError(error) logger.Logger                   { return tl }
func (tl *testLogger) With(map[string]interface{}) logger.Logger       { return tl }

func newTestHandler(t *testing.T, loader ApplicationLoader, indexer Indexer) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, loader, indexer, observability.NewNoop(), &testLogger{t: t})
}

func storedApp(id string) *models.Application {
	return &models.Application{ID: id, FullName: "Abebe Kebede", Role: "Sales", TopSkills: []string{"Closing"}}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		load      func(ctx context.Context, id string) (*models.Application, error)
		indexErr  error
		wantErr   error
		wantIndex int
	}{
		{
			name:      "indexes stored application",
			input:     &Input{ApplicationID: "app-1"},
			load:      func(_ context.Context, id string) (*models.Application, error) { return storedApp(id), nil },
			wantIndex: 1,
		},
		{
			name:    "missing id",
			input:   &Input{},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "application gone",
			input:   &Input{ApplicationID: "app-404"},
			load:    func(context.Context, string) (*models.Application, error) { return nil, nil },
			wantErr: ErrApplicationNotFound,
		},
		{
			name:      "index failure",
			input:     &Input{ApplicationID: "app-1"},
			load:      func(_ context.Context, id string) (*models.Application, error) { return storedApp(id), nil },
			indexErr:  errors.New("cluster red"),
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexer := &MockIndexer{}
			if tt.indexErr != nil {
				indexer.IndexFunc = func(context.Context, models.Application) error { return tt.indexErr }
			}
			loader := &MockLoader{GetApplicationFunc: tt.load}
			h := newTestHandler(t, loader, indexer)

			out, err := h.Execute(context.Background(), tt.input)
			assert.Len(t, indexer.indexed, tt.wantIndex)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out)
			case tt.indexErr != nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.True(t, out.Indexed)
				assert.NotEmpty(t, out.IndexedAt)
			}
		})
	}
}

func TestHandler_ToStandard(t *testing.T) {
	h := newTestHandler(t, &MockLoader{}, &MockIndexer{})

	tests := []struct {
		err       error
		code      commonerrors.ErrorCode
		retryable bool
	}{
		{ErrInvalidInput, "BUSINESS_RULE_VIOLATION", false},
		{ErrApplicationNotFound, commonerrors.ErrCodeResourceNotFound, false},
		{errors.New("connection reset"), commonerrors.ErrCodeSearchQueryFailed, true},
		{commonerrors.NewFetchFailedError("application", errors.New("timeout")), commonerrors.ErrCodeFetchFailed, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			stdErr := h.toStandard(tt.err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}
