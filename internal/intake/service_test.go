package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talent-intake/internal/common/database"
	commonerrors "talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockUploader struct {
	UploadFunc func(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
	calls      int
}

func (m *MockUploader) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	m.calls++
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, key, body, contentType)
	}
	return key, nil
}

type MockInserter struct {
	InsertApplicationFunc func(ctx context.Context, app models.Application) (*models.Application, error)
	inserted              []models.Application
}

func (m *MockInserter) InsertApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	if m.InsertApplicationFunc != nil {
		return m.InsertApplicationFunc(ctx, app)
	}
	m.inserted = append(m.inserted, app)
	app.ID = "app-1"
	return &app, nil
}

type recordingListener struct {
	mu   sync.Mutex
	apps []models.Application
}

func (l *recordingListener) ApplicationSubmitted(_ context.Context, app models.Application) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apps = append(l.apps, app)
}

type serviceFixture struct {
	svc      *Service
	store    *DraftStore
	mr       *miniredis.Miniredis
	uploader *MockUploader
	inserter *MockInserter
	listener *recordingListener
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &serviceFixture{
		store:    NewDraftStore(&database.RedisClient{Client: client}, time.Hour),
		mr:       mr,
		uploader: &MockUploader{},
		inserter: &MockInserter{},
		listener: &recordingListener{},
	}
	f.svc = NewService(f.store, f.uploader, f.inserter, f.listener, Config{Bucket: "cvs"}, logger.NewNoOpLogger())
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

// seedLastStep stores a draft on the commitment step with a complete form.
func (f *serviceFixture) seedLastStep(t *testing.T) *Draft {
	t.Helper()
	d := NewDraft("draft-1", time.Now())
	d.Data = completeForm()
	d.Step = StepCommitment
	require.NoError(t, f.store.Save(context.Background(), d))
	return d
}

func codeOf(t *testing.T, err error) commonerrors.ErrorCode {
	t.Helper()
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return stdErr.Code
}

func TestDraftStore_GetMissing(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.store.Get(context.Background(), "nope")
	assert.Equal(t, commonerrors.ErrCodeDraftNotFound, codeOf(t, err))
}

func TestDraftStore_Lock(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	release, ok, err := f.store.Lock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, f.mr.Exists("draft:d1:lock"))

	_, ok, err = f.store.Lock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, f.mr.Exists("draft:d1:lock"))
}

func TestService_StartAndUpdate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	d, err := f.svc.Start(ctx)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists("draft:"+d.ID))

	name := "Abebe Kebede"
	updated, err := f.svc.Update(ctx, d.ID, FieldPatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Data.FullName)

	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, name, reloaded.Data.FullName)
}

func TestService_NextPersistsFieldErrors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	d, err := f.svc.Start(ctx)
	require.NoError(t, err)

	got, err := f.svc.Next(ctx, d.ID)
	assert.Equal(t, commonerrors.ErrCodeApplicationValidationFailed, codeOf(t, err))
	require.NotNil(t, got)
	assert.Equal(t, StepBasicInfo, got.Step)

	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.Errors, "fullName")
}

func TestService_AttachCV(t *testing.T) {
	tests := []struct {
		name       string
		file       CVFile
		uploadErr  error
		wantCode   commonerrors.ErrorCode
		wantStatus models.CVStatus
		wantUpload bool
	}{
		{
			name:       "uploaded",
			file:       CVFile{FileName: "my cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
			wantStatus: models.CVUploaded,
			wantUpload: true,
		},
		{
			name:     "wrong extension",
			file:     CVFile{FileName: "cv.png", Data: []byte("x")},
			wantCode: commonerrors.ErrCodeApplicationValidationFailed,
		},
		{
			name:     "empty file",
			file:     CVFile{FileName: "cv.docx"},
			wantCode: commonerrors.ErrCodeApplicationValidationFailed,
		},
		{
			name:       "upload fails",
			file:       CVFile{FileName: "cv.doc", Data: []byte("x")},
			uploadErr:  errors.New("bucket unavailable"),
			wantCode:   commonerrors.ErrCodeCVUploadFailed,
			wantStatus: models.CVFailed,
			wantUpload: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			ctx := context.Background()
			var gotKey string
			f.uploader.UploadFunc = func(_ context.Context, bucket, key string, _ []byte, _ string) (string, error) {
				assert.Equal(t, "cvs", bucket)
				gotKey = key
				return key, tt.uploadErr
			}

			d, err := f.svc.Start(ctx)
			require.NoError(t, err)

			got, err := f.svc.AttachCV(ctx, d.ID, tt.file)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, codeOf(t, err))
				assert.Contains(t, got.Errors, "cvFile")
			} else {
				require.NoError(t, err)
				assert.Empty(t, got.Errors)
			}
			assert.Equal(t, tt.wantUpload, f.uploader.calls == 1)

			if tt.wantStatus == "" {
				assert.Nil(t, got.Data.CV)
				return
			}
			require.NotNil(t, got.Data.CV)
			assert.Equal(t, tt.wantStatus, got.Data.CV.Status)
			if tt.wantStatus == models.CVUploaded {
				assert.Equal(t, gotKey, got.Data.CV.Path)
				assert.Equal(t, "1709283600000_my_cv.pdf", got.Data.CV.Path)
			}

			reloaded, err := f.svc.Get(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, reloaded.Data.CV.Status)
		})
	}
}

// blockingUpload holds Upload until release is closed.
func blockingUpload(f *serviceFixture) (started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	f.uploader.UploadFunc = func(_ context.Context, _, key string, _ []byte, _ string) (string, error) {
		close(started)
		<-release
		return key, nil
	}
	return started, release
}

func TestService_AttachCVKeepsEditsMadeDuringUpload(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	started, release := blockingUpload(f)

	d, err := f.svc.Start(ctx)
	require.NoError(t, err)

	type result struct {
		draft *Draft
		err   error
	}
	done := make(chan result, 1)
	go func() {
		got, err := f.svc.AttachCV(ctx, d.ID, CVFile{FileName: "cv.pdf", Data: []byte("%PDF")})
		done <- result{got, err}
	}()
	<-started

	link := "https://linkedin.com/in/abebe"
	_, err = f.svc.Update(ctx, d.ID, FieldPatch{LinkedInURL: &link})
	require.NoError(t, err)
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, link, res.draft.Data.LinkedInURL)

	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, link, reloaded.Data.LinkedInURL)
	require.NotNil(t, reloaded.Data.CV)
	assert.Equal(t, models.CVUploaded, reloaded.Data.CV.Status)
	assert.True(t, reloaded.Data.CV.Ready())
}

func TestService_AttachCVAfterResetLeavesDraftEmpty(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	started, release := blockingUpload(f)

	d, err := f.svc.Start(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.AttachCV(ctx, d.ID, CVFile{FileName: "cv.pdf", Data: []byte("%PDF")})
		done <- err
	}()
	<-started

	_, err = f.svc.Reset(ctx, d.ID)
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Data.CV)
}

func TestService_Submit(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedLastStep(t)

	d, err := f.svc.Submit(ctx, "draft-1")
	require.NoError(t, err)
	assert.True(t, d.Submitted)
	assert.Equal(t, "app-1", d.ApplicationID)

	require.Len(t, f.inserter.inserted, 1)
	app := f.inserter.inserted[0]
	require.NotNil(t, app.CVFilePath)
	assert.Equal(t, "1_cv.pdf", *app.CVFilePath)
	assert.Equal(t, models.ScreeningPending, app.EffectiveStatus())

	f.svc.Wait()
	require.Len(t, f.listener.apps, 1)
	assert.Equal(t, "app-1", f.listener.apps[0].ID)
	assert.False(t, f.mr.Exists("draft:draft-1:lock"))

	// a second submit is refused and inserts nothing
	_, err = f.svc.Submit(ctx, "draft-1")
	assert.Equal(t, commonerrors.ErrCodeInvalidTransition, codeOf(t, err))
	assert.Len(t, f.inserter.inserted, 1)
}

func TestService_SubmitRejected(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *Draft)
		wantCode commonerrors.ErrorCode
	}{
		{
			name:     "not on last step",
			mutate:   func(d *Draft) { d.Step = StepPresence },
			wantCode: commonerrors.ErrCodeInvalidTransition,
		},
		{
			name:     "commitment unchecked",
			mutate:   func(d *Draft) { d.Data.CommitmentAgreed = false },
			wantCode: commonerrors.ErrCodeApplicationValidationFailed,
		},
		{
			name:     "cv still uploading",
			mutate:   func(d *Draft) { d.Data.CV = &models.CVAttachment{FileName: "cv.pdf", Status: models.CVUploading} },
			wantCode: commonerrors.ErrCodeCVMissing,
		},
		{
			name:     "earlier step edited",
			mutate:   func(d *Draft) { d.Data.Email = "" },
			wantCode: commonerrors.ErrCodeApplicationValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			ctx := context.Background()
			d := f.seedLastStep(t)
			tt.mutate(d)
			require.NoError(t, f.store.Save(ctx, d))

			got, err := f.svc.Submit(ctx, d.ID)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
			require.NotNil(t, got)
			assert.False(t, got.Submitted)
			assert.Empty(t, f.inserter.inserted)
			assert.Empty(t, f.listener.apps)
		})
	}
}

func TestService_SubmitInsertFailureStaysOnLastStep(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedLastStep(t)
	f.inserter.InsertApplicationFunc = func(context.Context, models.Application) (*models.Application, error) {
		return nil, commonerrors.NewDatabaseInsertFailedError(errors.New("connection reset"))
	}

	d, err := f.svc.Submit(ctx, "draft-1")
	assert.Equal(t, commonerrors.ErrCodeDatabaseInsertFailed, codeOf(t, err))
	assert.Equal(t, StepCommitment, d.Step)
	assert.False(t, d.Submitted)
	assert.NotEmpty(t, d.SubmitError)

	reloaded, err := f.svc.Get(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, d.SubmitError, reloaded.SubmitError)
	assert.Empty(t, f.listener.apps)
}

func TestService_SubmitWhileLocked(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedLastStep(t)
	require.NoError(t, f.mr.Set("draft:draft-1:lock", "other"))

	_, err := f.svc.Submit(ctx, "draft-1")
	assert.Equal(t, commonerrors.ErrCodeInvalidTransition, codeOf(t, err))
	assert.Empty(t, f.inserter.inserted)
}

func TestService_ResetAfterSubmit(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedLastStep(t)

	_, err := f.svc.Submit(ctx, "draft-1")
	require.NoError(t, err)

	d, err := f.svc.Reset(ctx, "draft-1")
	require.NoError(t, err)
	assert.False(t, d.Submitted)
	assert.Equal(t, StepBasicInfo, d.Step)
	assert.Empty(t, d.Data.FullName)

	_, err = f.svc.Update(ctx, "draft-1", FieldPatch{})
	assert.NoError(t, err)
}

func TestService_ToggleSkillAfterSubmitRefused(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedLastStep(t)
	_, err := f.svc.Submit(ctx, "draft-1")
	require.NoError(t, err)

	_, err = f.svc.ToggleSkill(ctx, "draft-1", "Negotiation")
	assert.Equal(t, commonerrors.ErrCodeInvalidTransition, codeOf(t, err))
}

type blockingListener struct {
	got     chan context.Context
	release chan struct{}
}

func (l *blockingListener) ApplicationSubmitted(ctx context.Context, _ models.Application) {
	l.got <- ctx
	<-l.release
}

func TestService_SubmitDoesNotWaitForFollowup(t *testing.T) {
	f := newServiceFixture(t)
	listener := &blockingListener{got: make(chan context.Context, 1), release: make(chan struct{})}
	f.svc.listener = listener
	f.seedLastStep(t)

	ctx, cancel := context.WithCancel(context.Background())
	d, err := f.svc.Submit(ctx, "draft-1")
	require.NoError(t, err)
	assert.True(t, d.Submitted)
	cancel()

	select {
	case followupCtx := <-listener.got:
		assert.NoError(t, followupCtx.Err())
		_, hasDeadline := followupCtx.Deadline()
		assert.True(t, hasDeadline)
	case <-time.After(time.Second):
		t.Fatal("follow-up listener was not called")
	}

	close(listener.release)
	f.svc.Wait()
}
