package models

import "time"

// AutoAbsentNote marks rows materialized by the gap-filling logic rather
// than an explicit teacher or admin action.
const AutoAbsentNote = "Auto Absent"

// TeacherAttendance is one ledger cell: at most one row exists per
// (teacher_id, date), enforced by a unique constraint. A zero ID means the
// entry was synthesized at read time and is not persisted.
type TeacherAttendance struct {
	ID        string    `db:"id" json:"id,omitempty"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Synthetic reports whether the entry was generated by the read-time fill.
func (a TeacherAttendance) Synthetic() bool {
	return a.ID == ""
}

// AttendanceSummary aggregates presence counts for a date range.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
