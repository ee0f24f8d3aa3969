package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context) ([]models.TeacherSubjectDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error)
	FindByID(ctx context.Context, id string) (*models.TeacherSubject, error)
	Insert(ctx context.Context, assignment *models.TeacherSubject) (bool, error)
	Update(ctx context.Context, assignment *models.TeacherSubject) error
	Delete(ctx context.Context, id string) error
}

type assignmentClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	SectionBelongsTo(ctx context.Context, sectionID, classroomID string) (bool, error)
}

type assignmentTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type assignmentSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// AssignRequest creates or moves a teacher-subject assignment.
type AssignRequest struct {
	TeacherID   string `json:"teacher_id" validate:"required,uuid4"`
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
	ClassroomID string `json:"classroom_id" validate:"required,uuid4"`
	SectionID   string `json:"section_id" validate:"required,uuid4"`
}

// AssignmentService manages which teacher covers which subject in which
// class section.
type AssignmentService struct {
	repo       assignmentRepository
	teachers   assignmentTeacherReader
	subjects   assignmentSubjectReader
	classrooms assignmentClassroomReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, teachers assignmentTeacherReader, subjects assignmentSubjectReader, classrooms assignmentClassroomReader, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:       repo,
		teachers:   teachers,
		subjects:   subjects,
		classrooms: classrooms,
		validator:  validate,
		logger:     logger,
	}
}

// List returns every assignment with display names joined on.
func (s *AssignmentService) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return rows, nil
}

// ListByTeacher returns one teacher's assignments.
func (s *AssignmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	rows, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher assignments")
	}
	return rows, nil
}

// Assign links a teacher to a subject in one class section. Assigning an
// identical tuple again succeeds without creating a duplicate.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) (*models.TeacherSubject, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, false, err
	}

	assignment := &models.TeacherSubject{
		TeacherID:   req.TeacherID,
		SubjectID:   req.SubjectID,
		ClassroomID: req.ClassroomID,
		SectionID:   req.SectionID,
	}
	inserted, err := s.repo.Insert(ctx, assignment)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	if inserted {
		s.logger.Info("assignment created",
			zap.String("teacher_id", req.TeacherID),
			zap.String("subject_id", req.SubjectID),
			zap.String("classroom_id", req.ClassroomID),
			zap.String("section_id", req.SectionID))
	}
	return assignment, inserted, nil
}

// Reassign moves an existing assignment to a new tuple. All references are
// validated before anything changes, so a bad section leaves the original
// row untouched.
func (s *AssignmentService) Reassign(ctx context.Context, id string, req AssignRequest) (*models.TeacherSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	existing.TeacherID = req.TeacherID
	existing.SubjectID = req.SubjectID
	existing.ClassroomID = req.ClassroomID
	existing.SectionID = req.SectionID
	if err := s.repo.Update(ctx, existing); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return existing, nil
}

// Unassign removes an assignment. Removing an already-removed assignment
// succeeds.
func (s *AssignmentService) Unassign(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// checkReferences verifies the teacher, subject and classroom exist and
// that the section belongs to the classroom.
func (s *AssignmentService) checkReferences(ctx context.Context, req AssignRequest) error {
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	belongs, err := s.classrooms.SectionBelongsTo(ctx, req.SectionID, req.ClassroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section")
	}
	if !belongs {
		return appErrors.Clone(appErrors.ErrInvalidSection, "")
	}
	return nil
}
