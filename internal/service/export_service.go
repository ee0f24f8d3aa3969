package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
	"github.com/schoolpanel/admin-api/pkg/export"
)

type attendanceLedgerSource interface {
	Ledger(ctx context.Context, teacherID string) ([]models.TeacherAttendance, error)
}

type salaryLedgerSource interface {
	Ledger(ctx context.Context, teacherID string) ([]models.TeacherSalary, error)
}

type exportTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile bundles rendered bytes with transport metadata.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders attendance and salary ledgers to CSV or PDF files
// for download.
type ExportService struct {
	attendance attendanceLedgerSource
	salaries   salaryLedgerSource
	teachers   exportTeacherReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(attendance attendanceLedgerSource, salaries salaryLedgerSource, teachers exportTeacherReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		salaries:   salaries,
		teachers:   teachers,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// AttendanceLedger renders a teacher's full attendance ledger.
func (s *ExportService) AttendanceLedger(ctx context.Context, teacherID string, format ExportFormat) (*ExportFile, error) {
	teacher, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	rows, err := s.attendance.Ledger(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Status", "Note"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, rec := range rows {
		status := "Absent"
		if rec.Present {
			status = "Present"
		}
		note := ""
		if rec.Note != nil {
			note = *rec.Note
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":   rec.Date.Format("2006-01-02"),
			"Status": status,
			"Note":   note,
		})
	}
	title := fmt.Sprintf("Attendance Ledger - %s", teacher.FullName)
	return s.render(dataset, title, fmt.Sprintf("attendance-%s", teacherID), format)
}

// SalaryLedger renders a teacher's payment history.
func (s *ExportService) SalaryLedger(ctx context.Context, teacherID string, format ExportFormat) (*ExportFile, error) {
	teacher, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	payments, err := s.salaries.Ledger(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Month", "Amount", "Method", "Paid At", "Note"},
		Rows:    make([]map[string]string, 0, len(payments)),
	}
	for _, p := range payments {
		method := ""
		if p.PaymentMethod != nil {
			method = *p.PaymentMethod
		}
		note := ""
		if p.Note != nil {
			note = *p.Note
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Month":   p.SalaryMonth.Format("2006-01"),
			"Amount":  fmt.Sprintf("%.2f", p.Amount),
			"Method":  method,
			"Paid At": p.PaidAt.Format("2006-01-02"),
			"Note":    note,
		})
	}
	title := fmt.Sprintf("Salary Ledger - %s", teacher.FullName)
	return s.render(dataset, title, fmt.Sprintf("salary-%s", teacherID), format)
}

func (s *ExportService) loadTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *ExportService) render(dataset export.Dataset, title, basename string, format ExportFormat) (*ExportFile, error) {
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    basename + ".csv",
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    basename + ".pdf",
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
