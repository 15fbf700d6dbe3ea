// Package submission runs the report submission flow: validate, upload
// images, persist, and announce.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/observability"
)

// NoticeTTL is how long a success notice stays visible.
const NoticeTTL = 3 * time.Second

// Store persists reports.
type Store interface {
	Create(ctx context.Context, in domain.ReportInput) (domain.Report, error)
}

// Uploader sends image batches to object storage.
type Uploader interface {
	Upload(ctx context.Context, files []media.File) ([]string, error)
	Limits() media.Limits
}

// Publisher announces stored reports.
type Publisher interface {
	PublishReportCreated(ctx context.Context, r domain.Report) error
}

// Submission is one form post: the report fields plus any attached files.
// DecodeErrors carries field problems found while reading the request, such
// as a coordinate that was missing or not a number.
type Submission struct {
	Input        domain.ReportInput
	Files        []media.File
	DecodeErrors []domain.FieldError
}

// Notice is the transient confirmation shown after a successful submission.
type Notice struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Result is the outcome of a successful submission. UploadError is set when
// the report was stored without its images.
type Result struct {
	Report      domain.Report `json:"report"`
	Notice      Notice        `json:"notice"`
	UploadError string        `json:"upload_error,omitempty"`
}

// Service implements the submission flow.
type Service struct {
	store     Store
	uploader  Uploader
	publisher Publisher
	geocoder  domain.Geocoder
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures optional collaborators.
type Option func(*Service)

// WithPublisher publishes report.created events after each stored report.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithGeocoder backs Locate and Resolve.
func WithGeocoder(g domain.Geocoder) Option {
	return func(s *Service) { s.geocoder = g }
}

// NewService creates a submission service.
func NewService(store Store, uploader Uploader, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		store:    store,
		uploader: uploader,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores a report. Validation failures return a
// *domain.ValidationError before any network call. An upload failure is not
// fatal: the report is stored without images and Result.UploadError says so.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	in := sub.Input.Normalized()
	in.Images = nil

	verr := &domain.ValidationError{}
	if err := in.Validate(); err != nil {
		if !errors.As(err, &verr) {
			return Result{}, err
		}
	}
	for _, fe := range sub.DecodeErrors {
		if verr.Message(fe.Field) == "" {
			verr.Add(fe.Field, fe.Message)
		}
	}
	if err := media.ValidateBatch(0, sub.Files, s.uploader.Limits()); err != nil {
		verr.Add("images", err.Error())
	}
	ts, err := domain.NormalizeTimestamp(in.Timestamp, s.clock.Now())
	if err != nil {
		verr.Add("timestamp", "Timestamp must be an ISO-8601 date")
	}
	if err := verr.Err(); err != nil {
		s.metrics.SubmitErrors.WithLabelValues("validation").Inc()
		return Result{}, err
	}
	in.Timestamp = ts

	var uploadErr string
	if len(sub.Files) > 0 {
		urls, err := s.uploader.Upload(ctx, sub.Files)
		if err != nil {
			s.logger.Warn("image upload failed, submitting without images", "files", len(sub.Files), "error", err)
			uploadErr = "Image upload failed, report submitted without images: " + err.Error()
		} else {
			in.Images = urls
		}
	}

	report, err := s.store.Create(ctx, in)
	if err != nil {
		s.metrics.SubmitErrors.WithLabelValues("persistence").Inc()
		s.logger.Error("report submission failed", "location", in.Location, "error", err)
		return Result{}, err
	}
	s.metrics.ReportsSubmitted.Inc()
	s.logger.Info("report submitted", "id", report.ID, "images", len(report.Images))

	s.publish(ctx, report)

	return Result{
		Report:      report,
		Notice:      newNotice(len(report.Images), s.clock.Now()),
		UploadError: uploadErr,
	}, nil
}

func (s *Service) publish(ctx context.Context, r domain.Report) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReportCreated(ctx, r); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish report event failed", "id", r.ID, "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func newNotice(images int, now time.Time) Notice {
	msg := "Thank you for contributing to community awareness."
	switch {
	case images == 1:
		msg += " 1 image uploaded."
	case images > 1:
		msg += fmt.Sprintf(" %d images uploaded.", images)
	}
	return Notice{
		Title:     "Report submitted successfully",
		Message:   msg,
		ExpiresAt: now.Add(NoticeTTL),
	}
}

// Visible reports whether the notice should still be shown at now.
func (n Notice) Visible(now time.Time) bool {
	return now.Before(n.ExpiresAt)
}
