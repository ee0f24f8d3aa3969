package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/pkg/clock"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type mockSalaryRepo struct {
	payments []models.TeacherSalary
}

func (m *mockSalaryRepo) Create(ctx context.Context, payment *models.TeacherSalary) error {
	if payment.ID == "" {
		payment.ID = "sal-" + payment.PaidAt.Format("150405.000")
	}
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockSalaryRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSalary, error) {
	var out []models.TeacherSalary
	for _, p := range m.payments {
		if p.TeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newSalaryFixture(now time.Time) (*SalaryService, *mockSalaryRepo) {
	repo := &mockSalaryRepo{}
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", Email: "amina@school.test", Active: true},
	}}
	return NewSalaryService(repo, teachers, clock.Fixed(now), nil, nil), repo
}

func TestRecordSalaryAllowsRepeatedMonths(t *testing.T) {
	now := time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC)
	svc, repo := newSalaryFixture(now)

	req := RecordSalaryRequest{SalaryMonth: "2026-01", Amount: 25000}
	_, err := svc.Record(context.Background(), "t1", req)
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), "t1", req)
	require.NoError(t, err)

	assert.Len(t, repo.payments, 2)
	assert.Equal(t, repo.payments[0].SalaryMonth, repo.payments[1].SalaryMonth)
}

func TestRecordSalaryStampsPaidAtFromClock(t *testing.T) {
	now := time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC)
	svc, _ := newSalaryFixture(now)

	payment, err := svc.Record(context.Background(), "t1", RecordSalaryRequest{SalaryMonth: "2025-12", Amount: 18500.50})
	require.NoError(t, err)
	assert.Equal(t, now, payment.PaidAt)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), payment.SalaryMonth)
}

func TestRecordSalaryValidation(t *testing.T) {
	now := time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC)
	svc, _ := newSalaryFixture(now)

	_, err := svc.Record(context.Background(), "t1", RecordSalaryRequest{SalaryMonth: "2026-01", Amount: -5})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Record(context.Background(), "t1", RecordSalaryRequest{SalaryMonth: "January", Amount: 100})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRecordSalaryUnknownTeacher(t *testing.T) {
	now := time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC)
	svc, _ := newSalaryFixture(now)

	_, err := svc.Record(context.Background(), "ghost", RecordSalaryRequest{SalaryMonth: "2026-01", Amount: 100})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
