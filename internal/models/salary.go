package models

import "time"

// TeacherSalary is one payment in an append-only ledger. There is
// deliberately no uniqueness per (teacher, month): several payments within
// the same month accumulate.
type TeacherSalary struct {
	ID            string    `db:"id" json:"id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	SalaryMonth   time.Time `db:"salary_month" json:"salary_month"`
	Amount        float64   `db:"amount" json:"amount"`
	PaymentMethod *string   `db:"payment_method" json:"payment_method,omitempty"`
	Note          *string   `db:"note" json:"note,omitempty"`
	PaidAt        time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
