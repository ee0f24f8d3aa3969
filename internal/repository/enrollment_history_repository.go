package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schoolpanel/admin-api/internal/models"
)

// EnrollmentHistoryRepository reads the append-only enrollment audit trail.
// Rows are written through StudentRepository transactions; history has no
// update or standalone delete path.
type EnrollmentHistoryRepository struct {
	db *sqlx.DB
}

// NewEnrollmentHistoryRepository constructs the repository.
func NewEnrollmentHistoryRepository(db *sqlx.DB) *EnrollmentHistoryRepository {
	return &EnrollmentHistoryRepository{db: db}
}

// ListByStudent returns a student's placement history oldest first, with
// classroom and section names joined on.
func (r *EnrollmentHistoryRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentHistoryDetail, error) {
	const query = `SELECT h.id, h.student_id, h.classroom_id, h.section_id, h.enrolled_at, h.left_at, h.note,
        c.name AS classroom_name, s.name AS section_name
FROM enrollment_history h
JOIN classrooms c ON c.id = h.classroom_id
JOIN sections s ON s.id = h.section_id
WHERE h.student_id = $1
ORDER BY h.enrolled_at ASC`
	var rows []models.EnrollmentHistoryDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollment history: %w", err)
	}
	return rows, nil
}
