package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolpanel/admin-api/internal/models"
)

// StudentRepository manages students, their parent info and enrollment
// history. Writes that touch more than one table run in a transaction so a
// student is never persisted without its history row.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filters along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d OR roll LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "full_name"
	}
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"roll":       "roll",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, full_name, email, roll, classroom_id, section_id, photo_path, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, roll, classroom_id, section_id, photo_path, active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindParent fetches the 1:1 parent info row, or sql.ErrNoRows.
func (r *StudentRepository) FindParent(ctx context.Context, studentID string) (*models.ParentInfo, error) {
	const query = `SELECT student_id, father_name, father_phone FROM parent_info WHERE student_id = $1`
	var parent models.ParentInfo
	if err := r.db.GetContext(ctx, &parent, query, studentID); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create inserts a student, optional parent info and, when the student is
// placed into a class section, the initial enrollment history row, all in
// one transaction.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, parent *models.ParentInfo) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const insertStudent = `INSERT INTO students (id, full_name, email, roll, classroom_id, section_id, photo_path, active, created_at, updated_at)
		VALUES (:id, :full_name, :email, :roll, :classroom_id, :section_id, :photo_path, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if parent != nil {
		parent.StudentID = student.ID
		const insertParent = `INSERT INTO parent_info (student_id, father_name, father_phone) VALUES (:student_id, :father_name, :father_phone)`
		if _, err := tx.NamedExecContext(ctx, insertParent, parent); err != nil {
			return fmt.Errorf("create parent info: %w", err)
		}
	}

	if student.ClassroomID != nil && student.SectionID != nil {
		if err := insertHistoryTx(ctx, tx, &models.EnrollmentHistory{
			StudentID:   student.ID,
			ClassroomID: *student.ClassroomID,
			SectionID:   *student.SectionID,
			EnrolledAt:  now,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	commit = true
	return nil
}

// Update modifies a student, upserts its parent info and appends an
// enrollment history row when requested, atomically.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, parent *models.ParentInfo, history *models.EnrollmentHistory) error {
	student.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const updateStudent = `UPDATE students SET full_name = :full_name, email = :email, roll = :roll, classroom_id = :classroom_id, section_id = :section_id, photo_path = :photo_path, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateStudent, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	if parent != nil {
		parent.StudentID = student.ID
		const upsertParent = `INSERT INTO parent_info (student_id, father_name, father_phone)
VALUES (:student_id, :father_name, :father_phone)
ON CONFLICT (student_id) DO UPDATE SET father_name = EXCLUDED.father_name, father_phone = EXCLUDED.father_phone`
		if _, err := tx.NamedExecContext(ctx, upsertParent, parent); err != nil {
			return fmt.Errorf("upsert parent info: %w", err)
		}
	}

	if history != nil {
		history.StudentID = student.ID
		if err := insertHistoryTx(ctx, tx, history); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	commit = true
	return nil
}

// Delete removes a student; parent info and enrollment history cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SectionCounts returns student counts per section for a classroom.
func (r *StudentRepository) SectionCounts(ctx context.Context, classroomID string) ([]models.SectionCount, error) {
	const query = `SELECT section_id, COUNT(*) AS cnt
FROM students
WHERE classroom_id = $1 AND section_id IS NOT NULL
GROUP BY section_id`
	var counts []models.SectionCount
	if err := r.db.SelectContext(ctx, &counts, query, classroomID); err != nil {
		return nil, fmt.Errorf("section counts: %w", err)
	}
	return counts, nil
}

func insertHistoryTx(ctx context.Context, tx *sqlx.Tx, history *models.EnrollmentHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.EnrolledAt.IsZero() {
		history.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollment_history (id, student_id, classroom_id, section_id, enrolled_at, left_at, note)
		VALUES (:id, :student_id, :classroom_id, :section_id, :enrolled_at, :left_at, :note)`
	if _, err := tx.NamedExecContext(ctx, query, history); err != nil {
		return fmt.Errorf("append enrollment history: %w", err)
	}
	return nil
}
