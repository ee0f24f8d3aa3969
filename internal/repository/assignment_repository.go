package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolpanel/admin-api/internal/models"
)

// AssignmentRepository persists the teacher-subject assignment matrix.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailSelect = `SELECT ts.id, ts.teacher_id, ts.subject_id, ts.classroom_id, ts.section_id, ts.created_at,
        t.full_name AS teacher_name, s.name AS subject_name, c.name AS classroom_name, sec.name AS section_name
FROM teacher_subjects ts
JOIN teachers t ON t.id = ts.teacher_id
JOIN subjects s ON s.id = ts.subject_id
JOIN classrooms c ON c.id = ts.classroom_id
JOIN sections sec ON sec.id = ts.section_id`

// List returns every assignment with display names, ordered by teacher.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	query := assignmentDetailSelect + ` ORDER BY t.full_name ASC, c.name ASC`
	var rows []models.TeacherSubjectDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// ListByTeacher returns one teacher's assignments with display names.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error) {
	query := assignmentDetailSelect + ` WHERE ts.teacher_id = $1 ORDER BY c.name ASC, s.name ASC`
	var rows []models.TeacherSubjectDetail
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return rows, nil
}

// FindByID fetches an assignment by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeacherSubject, error) {
	const query = `SELECT id, teacher_id, subject_id, classroom_id, section_id, created_at FROM teacher_subjects WHERE id = $1`
	var assignment models.TeacherSubject
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Insert creates the assignment unless the identical tuple already exists.
// Returns false when the tuple was already present; the unique constraint
// makes this safe under concurrent callers.
func (r *AssignmentRepository) Insert(ctx context.Context, assignment *models.TeacherSubject) (bool, error) {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_subjects (id, teacher_id, subject_id, classroom_id, section_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (teacher_id, subject_id, classroom_id, section_id) DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query, assignment.ID, assignment.TeacherID, assignment.SubjectID, assignment.ClassroomID, assignment.SectionID, assignment.CreatedAt).Scan(&insertedID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert assignment: %w", err)
	}
	return true, nil
}

// Update overwrites all four foreign keys of an assignment in one statement.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.TeacherSubject) error {
	const query = `UPDATE teacher_subjects SET teacher_id = :teacher_id, subject_id = :subject_id, classroom_id = :classroom_id, section_id = :section_id WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment; deleting a missing row is a no-op.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_subjects WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
