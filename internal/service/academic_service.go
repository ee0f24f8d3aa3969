package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type classroomRepository interface {
	List(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	ListSections(ctx context.Context, classroomID string) ([]models.Section, error)
	FindSectionByID(ctx context.Context, id string) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
}

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// CreateClassroomRequest names a new classroom.
type CreateClassroomRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// CreateSectionRequest adds a section under a classroom.
type CreateSectionRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// CreateSubjectRequest names a new subject.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// AcademicService manages the classroom/section hierarchy and the subject
// catalog. Sections live strictly under one classroom.
type AcademicService struct {
	classrooms classroomRepository
	subjects   subjectRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAcademicService constructs an AcademicService.
func NewAcademicService(classrooms classroomRepository, subjects subjectRepository, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{
		classrooms: classrooms,
		subjects:   subjects,
		validator:  validate,
		logger:     logger,
	}
}

// ListClassrooms returns all classrooms ordered by name.
func (s *AcademicService) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	rows, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return rows, nil
}

// CreateClassroom adds a classroom.
func (s *AcademicService) CreateClassroom(ctx context.Context, req CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := &models.Classroom{Name: req.Name}
	if err := s.classrooms.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return classroom, nil
}

// ListSections returns the sections under one classroom, ordered by name.
func (s *AcademicService) ListSections(ctx context.Context, classroomID string) ([]models.Section, error) {
	if _, err := s.classrooms.FindByID(ctx, classroomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	rows, err := s.classrooms.ListSections(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return rows, nil
}

// CreateSection adds a section under a classroom.
func (s *AcademicService) CreateSection(ctx context.Context, classroomID string, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.classrooms.FindByID(ctx, classroomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	section := &models.Section{ClassroomID: classroomID, Name: req.Name}
	if err := s.classrooms.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// ListSubjects returns the subject catalog ordered by name.
func (s *AcademicService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return rows, nil
}

// CreateSubject adds a subject to the catalog.
func (s *AcademicService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{Name: req.Name}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}
