package models

import "time"

// TeacherSubject maps a teacher to a subject taught in one class section.
// The tuple (teacher_id, subject_id, classroom_id, section_id) is unique.
type TeacherSubject struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubjectDetail joins display names onto an assignment row.
type TeacherSubjectDetail struct {
	TeacherSubject
	TeacherName   string `db:"teacher_name" json:"teacher_name"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
	SectionName   string `db:"section_name" json:"section_name"`
}
