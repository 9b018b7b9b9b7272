package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/middleware"
	"github.com/hakchin/ppst/internal/models"
	"github.com/hakchin/ppst/internal/observability"
	"github.com/hakchin/ppst/internal/repository"
)

// SubmissionLimiter decides whether a client may submit at a given instant and how long a
// rejected client still has to wait.
type SubmissionLimiter interface {
	CheckAndRecord(clientID string, now time.Time) bool
	RetryAfter(clientID string, now time.Time) time.Duration
}

// ContactService exposes the contact submission workflow and the export read path.
type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) dto.ContactOutcome
	Export(ctx context.Context, format dto.ExportFormat) (string, error)
}

// ContactServiceOption customises the contact service.
type ContactServiceOption func(*contactService)

// WithContactClock overrides the time source used for rate limiting and timestamps.
func WithContactClock(now func() time.Time) ContactServiceOption {
	return func(s *contactService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDuplicateGuard enables rejection of identical submissions.
func WithDuplicateGuard(guard DuplicateGuard) ContactServiceOption {
	return func(s *contactService) {
		s.dedupe = guard
	}
}

type contactService struct {
	repo      repository.ContactRepository
	limiter   SubmissionLimiter
	validator *ContactValidator
	exporter  *ContactExporter
	dedupe    DuplicateGuard
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewContactService constructs the submission orchestrator.
func NewContactService(repo repository.ContactRepository, limiter SubmissionLimiter, validator *ContactValidator, logger zerolog.Logger, opts ...ContactServiceOption) ContactService {
	s := &contactService{
		repo:      repo,
		limiter:   limiter,
		validator: validator,
		exporter:  NewContactExporter(repo),
		logger:    logger.With().Str("component", "contact_service").Logger(),
		tracer:    otel.Tracer("github.com/hakchin/ppst/internal/service/contact"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *contactService) Submit(ctx context.Context, req dto.ContactRequest) dto.ContactOutcome {
	ctx, span := s.tracer.Start(ctx, "contact.submit")
	defer span.End()

	logger := s.logger
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		logger = logger.With().Str("correlation_id", correlation).Logger()
	}

	now := s.now()
	clientID := clientIdentifier(req.IPAddress)
	if !s.limiter.CheckAndRecord(clientID, now) {
		retryAfter := s.limiter.RetryAfter(clientID, now)
		span.SetStatus(codes.Error, "rate limited")
		observability.ContactSubmissions().WithLabelValues(string(dto.ContactRateLimited)).Inc()
		logger.Info().Str("client_id", clientID).Dur("retry_after", retryAfter).Msg("contact submission rate limited")
		return dto.ContactOutcome{Status: dto.ContactRateLimited, RetryAfter: retryAfter}
	}

	fields, err := s.validator.Validate(req)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			span.SetStatus(codes.Error, "validation failed")
			span.SetAttributes(attribute.Int("contact.validation_errors", len(validationErr.Errors)))
			observability.ContactSubmissions().WithLabelValues(string(dto.ContactInvalid)).Inc()
			return dto.ContactOutcome{Status: dto.ContactInvalid, Errors: validationErr.Errors}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "validator failed")
		observability.ContactSubmissions().WithLabelValues(string(dto.ContactFailed)).Inc()
		logger.Error().Err(err).Msg("contact validator failed")
		return dto.ContactOutcome{Status: dto.ContactFailed}
	}

	if s.dedupe != nil {
		duplicate, err := s.dedupe.Seen(ctx, fields)
		switch {
		case err != nil:
			span.RecordError(err)
			logger.Warn().Err(err).Msg("duplicate check unavailable, continuing")
		case duplicate:
			span.SetStatus(codes.Error, "duplicate submission")
			observability.ContactSubmissions().WithLabelValues(string(dto.ContactDuplicate)).Inc()
			return dto.ContactOutcome{Status: dto.ContactDuplicate}
		}
	}

	inquiry := models.NewContactInquiry(fields, now, req.UserAgent, req.IPAddress)
	span.SetAttributes(attribute.String("contact.inquiry_id", inquiry.ID))

	start := time.Now()
	path, err := s.repo.Save(ctx, inquiry)
	observability.ContactStoreLatency().WithLabelValues("save").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.ContactSubmissions().WithLabelValues(string(dto.ContactFailed)).Inc()
		logStoreFailure(logger, err, "save", inquiry.ID)
		return dto.ContactOutcome{Status: dto.ContactFailed}
	}

	observability.ContactSubmissions().WithLabelValues(string(dto.ContactAccepted)).Inc()
	event := logger.Info().Str("inquiry_id", inquiry.ID).Str("path", path)
	if inquiry.Email != nil {
		event = event.Str("email", maskEmailAddress(*inquiry.Email))
	}
	event.Msg("contact inquiry stored")
	span.SetStatus(codes.Ok, "stored")

	return dto.ContactOutcome{Status: dto.ContactAccepted, InquiryID: inquiry.ID}
}

func (s *contactService) Export(ctx context.Context, format dto.ExportFormat) (string, error) {
	ctx, span := s.tracer.Start(ctx, "contact.export")
	defer span.End()
	span.SetAttributes(attribute.String("contact.export_format", string(format)))

	start := time.Now()
	body, err := s.exporter.Export(ctx, format)
	observability.ContactStoreLatency().WithLabelValues("export").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		observability.ContactExports().WithLabelValues(string(format), "error").Inc()
		if !errors.Is(err, ErrUnsupportedExportFormat) {
			logStoreFailure(s.logger, err, "export", "")
		}
		return "", err
	}

	observability.ContactExports().WithLabelValues(string(format), "ok").Inc()
	span.SetStatus(codes.Ok, "exported")
	return body, nil
}

func logStoreFailure(logger zerolog.Logger, err error, op, inquiryID string) {
	event := logger.Error().Err(err).Str("op", op)
	if inquiryID != "" {
		event = event.Str("inquiry_id", inquiryID)
	}

	var storageErr *repository.StorageError
	var serializationErr *repository.SerializationError
	switch {
	case errors.As(err, &storageErr):
		event = event.Str("kind", "storage").Str("storage_op", storageErr.Op).Str("path", storageErr.Path)
	case errors.As(err, &serializationErr):
		event = event.Str("kind", "serialization").Str("storage_op", serializationErr.Op).Str("path", serializationErr.Path)
	}
	event.Msg("contact store operation failed")
}
