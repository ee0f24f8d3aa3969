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

type salaryRepository interface {
	Create(ctx context.Context, payment *models.TeacherSalary) error
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSalary, error)
}

type salaryTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// RecordSalaryRequest is one salary payment. SalaryMonth identifies the
// month being paid for, not when the payment happened.
type RecordSalaryRequest struct {
	SalaryMonth   string  `json:"salary_month" validate:"required,datetime=2006-01"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,max=40"`
	Note          *string `json:"note" validate:"omitempty,max=500"`
}

// SalaryService keeps the append-only payment ledger per teacher. Multiple
// payments against the same month are allowed and simply accumulate.
type SalaryService struct {
	repo      salaryRepository
	teachers  salaryTeacherReader
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSalaryService constructs a SalaryService.
func NewSalaryService(repo salaryRepository, teachers salaryTeacherReader, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *SalaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New("UTC")
	}
	return &SalaryService{
		repo:      repo,
		teachers:  teachers,
		clock:     clk,
		validator: validate,
		logger:    logger,
	}
}

// Record appends a payment to a teacher's ledger.
func (s *SalaryService) Record(ctx context.Context, teacherID string, req RecordSalaryRequest) (*models.TeacherSalary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary payload")
	}

	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	month, _ := time.Parse("2006-01", req.SalaryMonth)
	payment := &models.TeacherSalary{
		TeacherID:     teacherID,
		SalaryMonth:   month,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		PaidAt:        s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record salary")
	}
	s.logger.Info("salary recorded",
		zap.String("teacher_id", teacherID),
		zap.String("month", req.SalaryMonth),
		zap.Float64("amount", req.Amount))
	return payment, nil
}

// Ledger returns a teacher's payments newest first.
func (s *SalaryService) Ledger(ctx context.Context, teacherID string) ([]models.TeacherSalary, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	payments, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary payments")
	}
	return payments, nil
}
