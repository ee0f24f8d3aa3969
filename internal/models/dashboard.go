package models

import "time"

// DashboardSummary is the admin landing-page snapshot.
type DashboardSummary struct {
	TotalTeachers    int                  `json:"total_teachers"`
	ActiveTeachers   int                  `json:"active_teachers"`
	InactiveTeachers int                  `json:"inactive_teachers"`
	PresentToday     int                  `json:"present_today"`
	AbsentToday      int                  `json:"absent_today"`
	Teachers         []TeacherPresenceRow `json:"teachers"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// TeacherPresenceRow is one dashboard line.
type TeacherPresenceRow struct {
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	Active       bool   `db:"active" json:"active"`
	PresentToday bool   `db:"present_today" json:"present_today"`
}
