package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolpanel/admin-api/internal/models"
)

// SalaryRepository persists the append-only salary ledger.
type SalaryRepository struct {
	db *sqlx.DB
}

// NewSalaryRepository constructs the repository.
func NewSalaryRepository(db *sqlx.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// Create appends one payment. No uniqueness per (teacher, month): the
// ledger records every payment made.
func (r *SalaryRepository) Create(ctx context.Context, payment *models.TeacherSalary) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	const query = `INSERT INTO teacher_salaries (id, teacher_id, salary_month, amount, payment_method, note, paid_at, created_at)
		VALUES (:id, :teacher_id, :salary_month, :amount, :payment_method, :note, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create salary payment: %w", err)
	}
	return nil
}

// ListByTeacher returns a teacher's payments newest first.
func (r *SalaryRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSalary, error) {
	const query = `SELECT id, teacher_id, salary_month, amount, payment_method, note, paid_at, created_at
FROM teacher_salaries
WHERE teacher_id = $1
ORDER BY paid_at DESC`
	var payments []models.TeacherSalary
	if err := r.db.SelectContext(ctx, &payments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list salary payments: %w", err)
	}
	return payments, nil
}
