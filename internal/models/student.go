package models

import "time"

// Student represents an enrolled pupil. Classroom and section are optional
// until the student is placed.
type Student struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Roll        string    `db:"roll" json:"roll"`
	ClassroomID *string   `db:"classroom_id" json:"classroom_id,omitempty"`
	SectionID   *string   `db:"section_id" json:"section_id,omitempty"`
	PhotoPath   *string   `db:"photo_path" json:"photo_path,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ParentInfo is owned 1:1 by a student and cascade-deleted with it.
type ParentInfo struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	FatherName  string  `db:"father_name" json:"father_name"`
	FatherPhone *string `db:"father_phone" json:"father_phone,omitempty"`
}

// StudentDetail bundles a student with its parent info and history.
type StudentDetail struct {
	Student
	Parent  *ParentInfo               `json:"parent,omitempty"`
	History []EnrollmentHistoryDetail `json:"history,omitempty"`
}

// StudentFilter captures filtering options for listing students.
type StudentFilter struct {
	Search      string
	ClassroomID string
	SectionID   string
	Active      *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// SectionCount reports how many students sit in one section.
type SectionCount struct {
	SectionID string `db:"section_id" json:"section_id"`
	Count     int    `db:"cnt" json:"count"`
}
