package models

import "time"

// EnrollmentHistory is an immutable audit record appended whenever a
// student's (classroom, section) placement actually changes. LeftAt exists
// for explicit use but is never auto-populated by reassignment.
type EnrollmentHistory struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	ClassroomID string     `db:"classroom_id" json:"classroom_id"`
	SectionID   string     `db:"section_id" json:"section_id"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	LeftAt      *time.Time `db:"left_at" json:"left_at,omitempty"`
	Note        *string    `db:"note" json:"note,omitempty"`
}

// EnrollmentHistoryDetail joins display names onto a history row.
type EnrollmentHistoryDetail struct {
	EnrollmentHistory
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
	SectionName   string `db:"section_name" json:"section_name"`
}
