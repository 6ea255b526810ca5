// internal/intake/service.go
package intake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/models"
	"talent-intake/internal/platform"
)

// DraftRepository persists drafts between requests.
type DraftRepository interface {
	Create(ctx context.Context, now time.Time) (*Draft, error)
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Lock(ctx context.Context, id string, ttl time.Duration) (release func(), ok bool, err error)
}

// Uploader stores CV bytes and returns the stored path.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
}

// ApplicationInserter creates the application record.
type ApplicationInserter interface {
	InsertApplication(ctx context.Context, app models.Application) (*models.Application, error)
}

// SubmissionListener is told about every stored application. It must not fail the submit.
type SubmissionListener interface {
	ApplicationSubmitted(ctx context.Context, app models.Application)
}

type Config struct {
	Bucket        string
	MaxCVBytes      int64
	SubmitLockTTL   time.Duration
	FollowupTimeout time.Duration
}

// CVFile is a CV chosen by the candidate.
type CVFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

var acceptedCVExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

// Service drives drafts through the wizard and performs the upload and insert side effects.
type Service struct {
	drafts   DraftRepository
	uploader Uploader
	inserter ApplicationInserter
	listener SubmissionListener
	config   Config
	now      func() time.Time
	logger   logger.Logger
	pending  sync.WaitGroup
}

func NewService(drafts DraftRepository, uploader Uploader, inserter ApplicationInserter, listener SubmissionListener, cfg Config, log logger.Logger) *Service {
	if cfg.Bucket == "" {
		cfg.Bucket = "cvs"
	}
	if cfg.MaxCVBytes <= 0 {
		cfg.MaxCVBytes = 10 << 20
	}
	if cfg.SubmitLockTTL <= 0 {
		cfg.SubmitLockTTL = time.Minute
	}
	if cfg.FollowupTimeout <= 0 {
		cfg.FollowupTimeout = 30 * time.Second
	}
	return &Service{
		drafts:   drafts,
		uploader: uploader,
		inserter: inserter,
		listener: listener,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.ForComponent(log, "intake"),
	}
}

func (s *Service) Start(ctx context.Context) (*Draft, error) {
	d, err := s.drafts.Create(ctx, s.now())
	metrics.FormTransitions.WithLabelValues("start", metrics.Result(err)).Inc()
	return d, err
}

func (s *Service) Get(ctx context.Context, id string) (*Draft, error) {
	return s.drafts.Get(ctx, id)
}

// mutate loads a draft, applies fn and saves the result. The draft is saved even when fn
// fails so that recorded field errors survive; it is returned alongside fn's error.
func (s *Service) mutate(ctx context.Context, id, action string, fn func(d *Draft) error) (*Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fnErr := fn(d)
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		metrics.FormTransitions.WithLabelValues(action, "error").Inc()
		return nil, err
	}

	metrics.FormTransitions.WithLabelValues(action, metrics.Result(fnErr)).Inc()
	return d, fnErr
}

func (s *Service) Update(ctx context.Context, id string, patch FieldPatch) (*Draft, error) {
	return s.mutate(ctx, id, "update", func(d *Draft) error {
		if d.Submitted {
			return errors.NewInvalidTransitionError("update", d.State())
		}
		d.Apply(patch)
		return nil
	})
}

func (s *Service) Next(ctx context.Context, id string) (*Draft, error) {
	return s.mutate(ctx, id, "next", func(d *Draft) error { return d.Next() })
}

func (s *Service) Prev(ctx context.Context, id string) (*Draft, error) {
	return s.mutate(ctx, id, "prev", func(d *Draft) error { return d.Prev() })
}

func (s *Service) ToggleSkill(ctx context.Context, id, skill string) (*Draft, error) {
	return s.mutate(ctx, id, "toggle_skill", func(d *Draft) error {
		if d.Submitted {
			return errors.NewInvalidTransitionError("toggle skill", d.State())
		}
		d.ToggleSkill(skill)
		return nil
	})
}

// Reset is allowed from any state; it backs "start a new application".
func (s *Service) Reset(ctx context.Context, id string) (*Draft, error) {
	return s.mutate(ctx, id, "reset", func(d *Draft) error {
		d.Reset(s.now())
		return nil
	})
}

func (s *Service) checkCV(file CVFile) string {
	ext := strings.ToLower(filepath.Ext(file.FileName))
	switch {
	case strings.TrimSpace(file.FileName) == "":
		return "Please upload your CV"
	case !acceptedCVExtensions[ext]:
		return "CV must be a PDF, DOC or DOCX file"
	case len(file.Data) == 0:
		return "The selected file is empty"
	case int64(len(file.Data)) > s.config.MaxCVBytes:
		return fmt.Sprintf("CV must be smaller than %d MB", s.config.MaxCVBytes>>20)
	}
	return ""
}

// AttachCV uploads the file right away. The attachment moves uploading → uploaded, or to
// failed with a field error; the candidate retries by attaching again.
func (s *Service) AttachCV(ctx context.Context, id string, file CVFile) (*Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Submitted {
		return d, errors.NewInvalidTransitionError("attach cv", d.State())
	}

	if msg := s.checkCV(file); msg != "" {
		d.Errors["cvFile"] = msg
		if err := s.drafts.Save(ctx, d); err != nil {
			return nil, err
		}
		return d, errors.NewApplicationValidationFailedError(map[string]string{"cvFile": msg})
	}

	now := s.now()
	d.Data.CV = &models.CVAttachment{
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
		Status:      models.CVUploading,
	}
	delete(d.Errors, "cvFile")
	d.UpdatedAt = now
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	attached := *d.Data.CV
	path, uploadErr := s.uploader.Upload(ctx, s.config.Bucket, platform.CVKey(now, file.FileName), file.Data, file.ContentType)
	metrics.CVUploads.WithLabelValues(metrics.Result(uploadErr)).Inc()
	if uploadErr != nil {
		s.logger.Warn("cv upload failed", map[string]interface{}{
			"draftId": id,
			"error":   uploadErr,
		})
	}

	// reload so edits made while the file was uploading are kept
	d, err = s.mutate(ctx, id, "attach_cv", func(d *Draft) error {
		cv := d.Data.CV
		if cv == nil || cv.Status != models.CVUploading || cv.FileName != attached.FileName || cv.Size != attached.Size {
			s.logger.Info("cv upload superseded", map[string]interface{}{"draftId": id})
			return nil
		}
		if uploadErr != nil {
			cv.Status = models.CVFailed
			d.Errors["cvFile"] = "Failed to upload CV. Please choose the file again."
			return nil
		}
		cv.Status = models.CVUploaded
		cv.Path = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uploadErr != nil {
		if _, ok := errors.AsStandardError(uploadErr); ok {
			return d, uploadErr
		}
		return d, errors.NewCVUploadFailedError(uploadErr)
	}
	return d, nil
}

// Submit validates the last step (and every earlier one), then inserts exactly one
// application referencing the uploaded CV. Any failure leaves the draft on the last step.
func (s *Service) Submit(ctx context.Context, id string) (*Draft, error) {
	release, ok, err := s.drafts.Lock(ctx, id, s.config.SubmitLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewInvalidTransitionError("submit", "a submission in progress")
	}
	defer release()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := d.checkSubmittable(); err != nil {
		metrics.Submissions.WithLabelValues("rejected").Inc()
		if saveErr := s.drafts.Save(ctx, d); saveErr != nil {
			return nil, saveErr
		}
		return d, err
	}

	// the upload always completes before the insert; never insert without a stored CV
	if !d.Data.CV.Ready() {
		metrics.Submissions.WithLabelValues("rejected").Inc()
		return d, errors.NewCVMissingError()
	}

	created, err := s.inserter.InsertApplication(ctx, d.Data.ToApplication(d.Data.CV.Path))
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		d.SubmitError = submitMessage(err)
		d.UpdatedAt = s.now()
		if saveErr := s.drafts.Save(ctx, d); saveErr != nil {
			s.logger.Error("failed to record submit error on draft", map[string]interface{}{
				"draftId": id,
				"error":   saveErr,
			})
		}
		return d, err
	}

	metrics.Submissions.WithLabelValues("success").Inc()
	d.markSubmitted(created.ID, s.now())
	if err := s.drafts.Save(ctx, d); err != nil {
		// the application exists; only the draft bookkeeping is stale
		s.logger.Error("failed to mark draft submitted", map[string]interface{}{
			"draftId":       id,
			"applicationId": created.ID,
			"error":         err,
		})
	}

	s.logger.Info("application submitted", map[string]interface{}{
		"draftId":       id,
		"applicationId": created.ID,
		"role":          created.Role,
	})

	if s.listener != nil {
		s.notify(ctx, *created)
	}
	return d, nil
}

// notify runs the listener in the background on a context that outlives the request.
func (s *Service) notify(ctx context.Context, app models.Application) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.FollowupTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		s.listener.ApplicationSubmitted(ctx, app)
	}()
}

// Wait blocks until background follow-up notifications have returned.
func (s *Service) Wait() {
	s.pending.Wait()
}

func submitMessage(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr.Message
	}
	return "Failed to submit application"
}
