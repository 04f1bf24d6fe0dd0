package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Avflux/Av-sub001/internal/repository"
	"github.com/google/uuid"
)

// Service handles activity bookkeeping outside the running timer.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest describes a new activity. Either EndTime or Estimate sets
// the target; StartTime defaults to now.
type CreateRequest struct {
	UserID      string
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Estimate    time.Duration
}

// Create validates and stores a new paused activity in regressive mode.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Activity, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	now := s.now()
	start := req.StartTime
	if start.IsZero() {
		start = now
	}
	end := req.EndTime
	if end.IsZero() && req.Estimate > 0 {
		end = start.Add(req.Estimate)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}

	act := &Activity{
		ID:          uuid.NewString(),
		UserID:      strings.TrimSpace(req.UserID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartTime:   start.Truncate(time.Second),
		EndTime:     end.Truncate(time.Second),
		Status:      StatusPaused,
		Mode:        ModeRegressive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, act); err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}

	s.logger.Info("activity created", "activity_id", act.ID, "user_id", act.UserID, "end_time", act.EndTime)
	return act, nil
}

// Get loads an activity by id.
func (s *Service) Get(ctx context.Context, id string) (*Activity, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	act, err := s.repo.LoadActivity(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("loading activity: %w", err)
	}
	return act, nil
}

// List returns activities matching the filter.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Activity, error) {
	return s.repo.List(ctx, opts)
}

// ValidateConclusion checks that an activity may be concluded with reason.
func ValidateConclusion(act *Activity, reason string) error {
	if act.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if act.TimeExceeded > 0 && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// Conclude marks an activity completed, storing the justification when given.
// A reason is mandatory once the estimate was exceeded.
func (s *Service) Conclude(ctx context.Context, id, reason string) error {
	act, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ValidateConclusion(act, reason); err != nil {
		return err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		if err := s.repo.SetReason(ctx, id, reason); err != nil {
			return fmt.Errorf("saving reason: %w", err)
		}
	}
	if err := s.repo.MarkActivityStatus(ctx, id, StatusCompleted); err != nil {
		return fmt.Errorf("marking activity completed: %w", err)
	}
	s.logger.Info("activity concluded", "activity_id", id, "exceeded", act.TimeExceeded)
	return nil
}

// RecordIdle adds a flushed idle span to the activity's stored idle time.
func (s *Service) RecordIdle(ctx context.Context, id string, idle time.Duration) error {
	if idle <= 0 {
		return nil
	}
	if err := s.repo.AddIdleTime(ctx, id, idle.Truncate(time.Second)); err != nil {
		return fmt.Errorf("recording idle time: %w", err)
	}
	return nil
}
