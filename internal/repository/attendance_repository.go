package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolpanel/admin-api/internal/models"
)

// AttendanceRepository handles persistence for the teacher attendance ledger.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts or updates the single ledger cell for (teacher_id, date).
// The unique constraint makes concurrent writers converge on one row.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.TeacherAttendance) (*models.TeacherAttendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := `INSERT INTO teacher_attendance (id, teacher_id, date, present, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (teacher_id, date)
DO UPDATE SET present = EXCLUDED.present, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
RETURNING id, teacher_id, date, present, note, created_at, updated_at`
	var stored models.TeacherAttendance
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.TeacherID, record.Date, record.Present, record.Note, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// InsertMissing persists the given synthetic rows, silently skipping days
// that already have a record. Used by the backfill sweep; idempotent by
// construction.
func (r *AttendanceRepository) InsertMissing(ctx context.Context, records []models.TeacherAttendance) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance backfill: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()
	query := `INSERT INTO teacher_attendance (id, teacher_id, date, present, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (teacher_id, date) DO NOTHING`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.TeacherID, rec.Date, rec.Present, rec.Note, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("backfill attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance backfill: %w", err)
	}
	commit = true
	return nil
}

// ListByTeacher returns persisted ledger rows for a teacher, optionally
// bounded by an inclusive date range, ordered descending by date.
func (r *AttendanceRepository) ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeacherAttendance, error) {
	where := []string{"teacher_id = $1"}
	args := []interface{}{teacherID}
	if from != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT id, teacher_id, date, present, note, created_at, updated_at
FROM teacher_attendance
WHERE %s
ORDER BY date DESC`, strings.Join(where, " AND "))
	var rows []models.TeacherAttendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// ListDates returns the set of calendar days that already have a row for
// the teacher within the inclusive range.
func (r *AttendanceRepository) ListDates(ctx context.Context, teacherID string, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT date FROM teacher_attendance WHERE teacher_id = $1 AND date >= $2 AND date <= $3`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance dates: %w", err)
	}
	return dates, nil
}

// ExistsOn reports whether the teacher has any row on the given day.
func (r *AttendanceRepository) ExistsOn(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teacher_attendance WHERE teacher_id = $1 AND date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date); err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return exists, nil
}

// Summary aggregates presence counts for a teacher within a range.
func (r *AttendanceRepository) Summary(ctx context.Context, teacherID string, from, to time.Time) (*models.AttendanceSummary, error) {
	const query = `SELECT present, COUNT(*) AS cnt
FROM teacher_attendance
WHERE teacher_id = $1 AND date >= $2 AND date <= $3
GROUP BY present`
	rows := []struct {
		Present bool `db:"present"`
		Count   int  `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	summary := &models.AttendanceSummary{}
	for _, row := range rows {
		if row.Present {
			summary.Present += row.Count
		} else {
			summary.Absent += row.Count
		}
		summary.Total += row.Count
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return summary, nil
}

// PresenceRows returns the per-teacher dashboard lines for one day.
func (r *AttendanceRepository) PresenceRows(ctx context.Context, date time.Time) ([]models.TeacherPresenceRow, error) {
	const query = `SELECT t.id AS teacher_id, t.full_name AS teacher_name, t.active,
        COALESCE(a.present, FALSE) AS present_today
FROM teachers t
LEFT JOIN teacher_attendance a ON a.teacher_id = t.id AND a.date = $1
ORDER BY t.full_name ASC`
	var rows []models.TeacherPresenceRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("presence rows: %w", err)
	}
	return rows, nil
}
