package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/pkg/clock"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindParent(ctx context.Context, studentID string) (*models.ParentInfo, error)
	Create(ctx context.Context, student *models.Student, parent *models.ParentInfo) error
	Update(ctx context.Context, student *models.Student, parent *models.ParentInfo, history *models.EnrollmentHistory) error
	Delete(ctx context.Context, id string) error
	SectionCounts(ctx context.Context, classroomID string) ([]models.SectionCount, error)
}

type enrollmentHistoryReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentHistoryDetail, error)
}

type studentClassroomReader interface {
	SectionBelongsTo(ctx context.Context, sectionID, classroomID string) (bool, error)
}

// ParentInfoPayload is the optional guardian block on student writes.
type ParentInfoPayload struct {
	FatherName  string  `json:"father_name" validate:"required,max=120"`
	FatherPhone *string `json:"father_phone" validate:"omitempty,max=30"`
}

// CreateStudentRequest is the student creation payload.
type CreateStudentRequest struct {
	FullName    string             `json:"full_name" validate:"required,max=120"`
	Email       *string            `json:"email" validate:"omitempty,email"`
	Roll        string             `json:"roll" validate:"required,max=20"`
	ClassroomID *string            `json:"classroom_id" validate:"omitempty,uuid4"`
	SectionID   *string            `json:"section_id" validate:"omitempty,uuid4"`
	Parent      *ParentInfoPayload `json:"parent"`
}

// UpdateStudentRequest is the student update payload.
type UpdateStudentRequest struct {
	FullName    string             `json:"full_name" validate:"required,max=120"`
	Email       *string            `json:"email" validate:"omitempty,email"`
	Roll        string             `json:"roll" validate:"required,max=20"`
	ClassroomID *string            `json:"classroom_id" validate:"omitempty,uuid4"`
	SectionID   *string            `json:"section_id" validate:"omitempty,uuid4"`
	Active      *bool              `json:"active"`
	Parent      *ParentInfoPayload `json:"parent"`
}

// StudentService manages students, guardian info and the placement audit
// trail. A history row is appended only when the (classroom, section) pair
// actually changes; re-saving the same placement leaves history untouched.
type StudentService struct {
	repo       studentRepository
	history    enrollmentHistoryReader
	classrooms studentClassroomReader
	clock      clock.Clock
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, history enrollmentHistoryReader, classrooms studentClassroomReader, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New("UTC")
	}
	return &StudentService{
		repo:       repo,
		history:    history,
		classrooms: classrooms,
		clock:      clk,
		validator:  validate,
		logger:     logger,
	}
}

// List returns students matching the filter plus paging metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student with parent info and full enrollment history.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	detail := &models.StudentDetail{Student: *student}

	parent, err := s.repo.FindParent(ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent info")
	}
	if err == nil {
		detail.Parent = parent
	}

	history, err := s.history.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}
	detail.History = history

	return detail, nil
}

// History returns the placement audit trail for a student, oldest first.
func (s *StudentService) History(ctx context.Context, studentID string) ([]models.EnrollmentHistoryDetail, error) {
	if _, err := s.repo.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	history, err := s.history.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}
	return history, nil
}

// Create registers a student. When a placement is supplied the initial
// enrollment history row is written in the same transaction.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.checkPlacement(ctx, req.ClassroomID, req.SectionID); err != nil {
		return nil, err
	}

	student := &models.Student{
		FullName:    req.FullName,
		Email:       req.Email,
		Roll:        req.Roll,
		ClassroomID: req.ClassroomID,
		SectionID:   req.SectionID,
		Active:      true,
	}
	var parent *models.ParentInfo
	if req.Parent != nil {
		parent = &models.ParentInfo{
			FatherName:  req.Parent.FatherName,
			FatherPhone: req.Parent.FatherPhone,
		}
	}

	if err := s.repo.Create(ctx, student, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update modifies a student. An enrollment history row is appended only
// when the new placement is complete and differs from the stored one; the
// previous history row's LeftAt is left alone.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.checkPlacement(ctx, req.ClassroomID, req.SectionID); err != nil {
		return nil, err
	}

	var history *models.EnrollmentHistory
	if req.ClassroomID != nil && req.SectionID != nil && placementChanged(student, req.ClassroomID, req.SectionID) {
		history = &models.EnrollmentHistory{
			StudentID:   id,
			ClassroomID: *req.ClassroomID,
			SectionID:   *req.SectionID,
			EnrolledAt:  s.clock.Now().UTC(),
		}
	}

	student.FullName = req.FullName
	student.Email = req.Email
	student.Roll = req.Roll
	student.ClassroomID = req.ClassroomID
	student.SectionID = req.SectionID
	if req.Active != nil {
		student.Active = *req.Active
	}

	var parent *models.ParentInfo
	if req.Parent != nil {
		parent = &models.ParentInfo{
			StudentID:   id,
			FatherName:  req.Parent.FatherName,
			FatherPhone: req.Parent.FatherPhone,
		}
	}

	if err := s.repo.Update(ctx, student, parent, history); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if history != nil {
		s.logger.Info("student placement changed",
			zap.String("student_id", id),
			zap.String("classroom_id", history.ClassroomID),
			zap.String("section_id", history.SectionID))
	}
	return student, nil
}

// Delete removes a student; parent info and history cascade in the schema.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// SectionCounts reports headcount per section within a classroom.
func (s *StudentService) SectionCounts(ctx context.Context, classroomID string) ([]models.SectionCount, error) {
	counts, err := s.repo.SectionCounts(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sections")
	}
	return counts, nil
}

// checkPlacement validates that a complete placement is internally
// consistent. A half-set placement (classroom without section or the
// reverse) is rejected.
func (s *StudentService) checkPlacement(ctx context.Context, classroomID, sectionID *string) error {
	if classroomID == nil && sectionID == nil {
		return nil
	}
	if classroomID == nil || sectionID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "classroom and section must be set together")
	}
	belongs, err := s.classrooms.SectionBelongsTo(ctx, *sectionID, *classroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section")
	}
	if !belongs {
		return appErrors.Clone(appErrors.ErrInvalidSection, "")
	}
	return nil
}

func placementChanged(current *models.Student, classroomID, sectionID *string) bool {
	if current.ClassroomID == nil || current.SectionID == nil {
		return true
	}
	return *current.ClassroomID != *classroomID || *current.SectionID != *sectionID
}
