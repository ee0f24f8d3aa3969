package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/pkg/clock"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.TeacherAttendance) (*models.TeacherAttendance, error)
	InsertMissing(ctx context.Context, records []models.TeacherAttendance) error
	ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeacherAttendance, error)
	ListDates(ctx context.Context, teacherID string, from, to time.Time) ([]time.Time, error)
	ExistsOn(ctx context.Context, teacherID string, date time.Time) (bool, error)
	Summary(ctx context.Context, teacherID string, from, to time.Time) (*models.AttendanceSummary, error)
}

type attendanceTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
}

// RecordAttendanceRequest is the admin/teacher attendance save payload.
type RecordAttendanceRequest struct {
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Present bool    `json:"present"`
	Note    *string `json:"note" validate:"omitempty,max=500"`
}

// AttendanceService maintains the day-by-day presence ledger per teacher.
// Every calendar day from the epoch onward resolves to exactly one cell;
// days without a stored row read as absent.
type AttendanceService struct {
	repo      attendanceRepository
	teachers  attendanceTeacherReader
	epoch     time.Time
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// WithMetrics attaches request-independent instrumentation. Optional.
func (s *AttendanceService) WithMetrics(m *MetricsService) *AttendanceService {
	s.metrics = m
	return s
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, teachers attendanceTeacherReader, epoch time.Time, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New("UTC")
	}
	return &AttendanceService{
		repo:      repo,
		teachers:  teachers,
		epoch:     clock.Day(epoch),
		clock:     clk,
		validator: validate,
		logger:    logger,
	}
}

// Record saves an explicit attendance mark for a teacher on one day,
// overwriting any existing cell for that day. Inactive teachers are
// rejected without touching the ledger.
func (s *AttendanceService) Record(ctx context.Context, teacherID string, req RecordAttendanceRequest) (*models.TeacherAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveTeacher, "")
	}

	day, _ := time.Parse("2006-01-02", req.Date)

	stored, err := s.repo.Upsert(ctx, &models.TeacherAttendance{
		TeacherID: teacherID,
		Date:      clock.Day(day),
		Present:   req.Present,
		Note:      req.Note,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return stored, nil
}

// View produces one entry per calendar day in the inclusive range, newest
// first. Days without a stored row are synthesized as absent without being
// persisted.
func (s *AttendanceService) View(ctx context.Context, teacherID string, from, to time.Time) ([]models.TeacherAttendance, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	from = clock.Day(from)
	to = clock.Day(to)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}

	stored, err := s.repo.ListByTeacher(ctx, teacherID, &from, &to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	byDay := make(map[time.Time]models.TeacherAttendance, len(stored))
	for _, rec := range stored {
		byDay[clock.Day(rec.Date)] = rec
	}

	note := models.AutoAbsentNote
	var entries []models.TeacherAttendance
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		if rec, ok := byDay[d]; ok {
			entries = append(entries, rec)
			continue
		}
		entries = append(entries, models.TeacherAttendance{
			TeacherID: teacherID,
			Date:      d,
			Present:   false,
			Note:      &note,
		})
	}
	return entries, nil
}

// Backfill persists an absent row for every gap day in [from, asOf].
// Re-running is a no-op for days that already have a cell.
func (s *AttendanceService) Backfill(ctx context.Context, teacherID string, from, asOf time.Time) error {
	from = clock.Day(from)
	asOf = clock.Day(asOf)
	if asOf.Before(from) {
		return nil
	}

	existing, err := s.repo.ListDates(ctx, teacherID, from, asOf)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance dates")
	}
	seen := make(map[time.Time]struct{}, len(existing))
	for _, d := range existing {
		seen[clock.Day(d)] = struct{}{}
	}

	note := models.AutoAbsentNote
	var missing []models.TeacherAttendance
	for d := from; !d.After(asOf); d = d.AddDate(0, 0, 1) {
		if _, ok := seen[d]; ok {
			continue
		}
		missing = append(missing, models.TeacherAttendance{
			TeacherID: teacherID,
			Date:      d,
			Present:   false,
			Note:      &note,
		})
	}
	if len(missing) == 0 {
		return nil
	}
	if err := s.repo.InsertMissing(ctx, missing); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill attendance")
	}
	s.metrics.AddBackfilledDays(len(missing))
	s.logger.Info("attendance backfilled",
		zap.String("teacher_id", teacherID),
		zap.Int("days", len(missing)))
	return nil
}

// MarkSelfPresent upserts today's cell to present for the teacher matching
// the authenticated email, and closes yesterday's gap with a persisted
// absent row so the ledger never trails more than one day behind.
func (s *AttendanceService) MarkSelfPresent(ctx context.Context, principalEmail string) (*models.TeacherAttendance, error) {
	teacher, err := s.teachers.FindByEmail(ctx, principalEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no teacher record matches this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	today := s.clock.Today()
	yesterday := today.AddDate(0, 0, -1)

	if !yesterday.Before(s.epoch) {
		hasYesterday, err := s.repo.ExistsOn(ctx, teacher.ID, yesterday)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check yesterday's attendance")
		}
		if !hasYesterday {
			note := models.AutoAbsentNote
			if err := s.repo.InsertMissing(ctx, []models.TeacherAttendance{{
				TeacherID: teacher.ID,
				Date:      yesterday,
				Present:   false,
				Note:      &note,
			}}); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill yesterday")
			}
		}
	}

	stored, err := s.repo.Upsert(ctx, &models.TeacherAttendance{
		TeacherID: teacher.ID,
		Date:      today,
		Present:   true,
		Note:      nil,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return stored, nil
}

// Ledger runs the backfill sweep from the epoch through today and returns
// the persisted rows newest first. Admin listing view.
func (s *AttendanceService) Ledger(ctx context.Context, teacherID string) ([]models.TeacherAttendance, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if err := s.Backfill(ctx, teacherID, s.epoch, s.clock.Today()); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByTeacher(ctx, teacherID, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, nil
}

// SelfLedger resolves the authenticated teacher by email and returns their
// backfilled ledger.
func (s *AttendanceService) SelfLedger(ctx context.Context, principalEmail string) ([]models.TeacherAttendance, error) {
	teacher, err := s.teachers.FindByEmail(ctx, principalEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no teacher record matches this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return s.Ledger(ctx, teacher.ID)
}

// Summary aggregates presence counts for a teacher between from and to.
func (s *AttendanceService) Summary(ctx context.Context, teacherID string, from, to time.Time) (*models.AttendanceSummary, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	summary, err := s.repo.Summary(ctx, teacherID, clock.Day(from), clock.Day(to))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	return summary, nil
}

// Epoch exposes the configured ledger start date.
func (s *AttendanceService) Epoch() time.Time {
	return s.epoch
}

// Today exposes the clock's current day, for handlers defaulting ranges.
func (s *AttendanceService) Today() time.Time {
	return s.clock.Today()
}
