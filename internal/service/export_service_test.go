package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type mockLedgerSource struct {
	rows []models.TeacherAttendance
}

func (m *mockLedgerSource) Ledger(ctx context.Context, teacherID string) ([]models.TeacherAttendance, error) {
	return m.rows, nil
}

type mockSalarySource struct {
	payments []models.TeacherSalary
}

func (m *mockSalarySource) Ledger(ctx context.Context, teacherID string) ([]models.TeacherSalary, error) {
	return m.payments, nil
}

func newExportFixture() *ExportService {
	note := models.AutoAbsentNote
	attendance := &mockLedgerSource{rows: []models.TeacherAttendance{
		{ID: "a2", TeacherID: "t1", Date: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC), Present: true},
		{ID: "a1", TeacherID: "t1", Date: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Present: false, Note: &note},
	}}
	salaries := &mockSalarySource{payments: []models.TeacherSalary{
		{ID: "s1", TeacherID: "t1", SalaryMonth: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Amount: 25000, PaidAt: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)},
	}}
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true},
	}}
	return NewExportService(attendance, salaries, teachers, nil)
}

func TestExportAttendanceCSV(t *testing.T) {
	svc := newExportFixture()

	file, err := svc.AttendanceLedger(context.Background(), "t1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "attendance-t1.csv", file.Filename)

	body := string(file.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Status,Note", lines[0])
	assert.Equal(t, "2025-12-02,Present,", lines[1])
	assert.Equal(t, "2025-12-01,Absent,Auto Absent", lines[2])
}

func TestExportSalaryPDF(t *testing.T) {
	svc := newExportFixture()

	file, err := svc.SalaryLedger(context.Background(), "t1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "salary-t1.pdf", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportUnknownFormat(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.AttendanceLedger(context.Background(), "t1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportUnknownTeacher(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.AttendanceLedger(context.Background(), "ghost", FormatCSV)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
