package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type mockAssignmentRepo struct {
	rows    map[string]models.TeacherSubject
	deleted []string
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{rows: make(map[string]models.TeacherSubject)}
}

func (m *mockAssignmentRepo) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	return nil, nil
}

func (m *mockAssignmentRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error) {
	var out []models.TeacherSubjectDetail
	for _, row := range m.rows {
		if row.TeacherID == teacherID {
			out = append(out, models.TeacherSubjectDetail{TeacherSubject: row})
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.TeacherSubject, error) {
	if row, ok := m.rows[id]; ok {
		return &row, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) Insert(ctx context.Context, assignment *models.TeacherSubject) (bool, error) {
	for _, row := range m.rows {
		if row.TeacherID == assignment.TeacherID &&
			row.SubjectID == assignment.SubjectID &&
			row.ClassroomID == assignment.ClassroomID &&
			row.SectionID == assignment.SectionID {
			return false, nil
		}
	}
	if assignment.ID == "" {
		assignment.ID = "assign-" + assignment.SectionID
	}
	m.rows[assignment.ID] = *assignment
	return true, nil
}

func (m *mockAssignmentRepo) Update(ctx context.Context, assignment *models.TeacherSubject) error {
	if _, ok := m.rows[assignment.ID]; !ok {
		return sql.ErrNoRows
	}
	m.rows[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.rows, id)
	return nil
}

type mockClassroomReader struct {
	classrooms map[string]*models.Classroom
	sections   map[string]string // sectionID -> classroomID
}

func (m *mockClassroomReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomReader) SectionBelongsTo(ctx context.Context, sectionID, classroomID string) (bool, error) {
	return m.sections[sectionID] == classroomID, nil
}

type mockSubjectReader struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

const (
	uuidTeacher   = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c001"
	uuidSubject   = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c002"
	uuidClassroom = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c003"
	uuidSectionA  = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c004"
	uuidSectionB  = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c005"
	uuidOtherRoom = "0a6f3f89-9f1b-4f25-8f58-b6f6a8f9c006"
)

func newAssignmentFixture() (*AssignmentService, *mockAssignmentRepo) {
	repo := newMockAssignmentRepo()
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		uuidTeacher: {ID: uuidTeacher, Email: "amina@school.test", Active: true},
	}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{
		uuidSubject: {ID: uuidSubject, Name: "Mathematics"},
	}}
	classrooms := &mockClassroomReader{
		classrooms: map[string]*models.Classroom{
			uuidClassroom: {ID: uuidClassroom, Name: "Grade 5"},
			uuidOtherRoom: {ID: uuidOtherRoom, Name: "Grade 6"},
		},
		sections: map[string]string{
			uuidSectionA: uuidClassroom,
			uuidSectionB: uuidOtherRoom,
		},
	}
	svc := NewAssignmentService(repo, teachers, subjects, classrooms, nil, nil)
	return svc, repo
}

func TestAssignIsIdempotent(t *testing.T) {
	svc, repo := newAssignmentFixture()
	req := AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionA,
	}

	_, inserted, err := svc.Assign(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, inserted)

	_, inserted, err = svc.Assign(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Len(t, repo.rows, 1)
}

func TestAssignRejectsForeignSection(t *testing.T) {
	svc, repo := newAssignmentFixture()
	req := AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionB, // belongs to the other classroom
	}

	_, _, err := svc.Assign(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSection))
	assert.Empty(t, repo.rows)
}

func TestReassignValidatesBeforeMutating(t *testing.T) {
	svc, repo := newAssignmentFixture()

	created, _, err := svc.Assign(context.Background(), AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionA,
	})
	require.NoError(t, err)

	_, err = svc.Reassign(context.Background(), created.ID, AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionB,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSection))

	// The stored row is untouched.
	stored := repo.rows[created.ID]
	assert.Equal(t, uuidSectionA, stored.SectionID)
}

func TestReassignMovesAssignment(t *testing.T) {
	svc, repo := newAssignmentFixture()

	created, _, err := svc.Assign(context.Background(), AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionA,
	})
	require.NoError(t, err)

	updated, err := svc.Reassign(context.Background(), created.ID, AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidOtherRoom,
		SectionID:   uuidSectionB,
	})
	require.NoError(t, err)
	assert.Equal(t, uuidOtherRoom, updated.ClassroomID)
	assert.Equal(t, uuidSectionB, updated.SectionID)
	assert.Equal(t, uuidSectionB, repo.rows[created.ID].SectionID)
}

func TestReassignUnknownAssignment(t *testing.T) {
	svc, _ := newAssignmentFixture()

	_, err := svc.Reassign(context.Background(), "missing", AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionA,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUnassignIsIdempotent(t *testing.T) {
	svc, repo := newAssignmentFixture()

	created, _, err := svc.Assign(context.Background(), AssignRequest{
		TeacherID:   uuidTeacher,
		SubjectID:   uuidSubject,
		ClassroomID: uuidClassroom,
		SectionID:   uuidSectionA,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Unassign(context.Background(), created.ID))
	require.NoError(t, svc.Unassign(context.Background(), created.ID))
	assert.Empty(t, repo.rows)
}
