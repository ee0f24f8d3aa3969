package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/pkg/clock"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	parents  map[string]models.ParentInfo
	history  []models.EnrollmentHistory
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		students: make(map[string]models.Student),
		parents:  make(map[string]models.ParentInfo),
	}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindParent(ctx context.Context, studentID string) (*models.ParentInfo, error) {
	if p, ok := m.parents[studentID]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student, parent *models.ParentInfo) error {
	if student.ID == "" {
		student.ID = "stu-1"
	}
	m.students[student.ID] = *student
	if parent != nil {
		parent.StudentID = student.ID
		m.parents[student.ID] = *parent
	}
	if student.ClassroomID != nil && student.SectionID != nil {
		m.history = append(m.history, models.EnrollmentHistory{
			StudentID:   student.ID,
			ClassroomID: *student.ClassroomID,
			SectionID:   *student.SectionID,
		})
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student, parent *models.ParentInfo, history *models.EnrollmentHistory) error {
	m.students[student.ID] = *student
	if parent != nil {
		m.parents[student.ID] = *parent
	}
	if history != nil {
		m.history = append(m.history, *history)
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	delete(m.parents, id)
	return nil
}

func (m *mockStudentRepo) SectionCounts(ctx context.Context, classroomID string) ([]models.SectionCount, error) {
	counts := make(map[string]int)
	for _, s := range m.students {
		if s.ClassroomID != nil && *s.ClassroomID == classroomID && s.SectionID != nil {
			counts[*s.SectionID]++
		}
	}
	var out []models.SectionCount
	for id, n := range counts {
		out = append(out, models.SectionCount{SectionID: id, Count: n})
	}
	return out, nil
}

type mockHistoryReader struct {
	repo *mockStudentRepo
}

func (m *mockHistoryReader) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentHistoryDetail, error) {
	var out []models.EnrollmentHistoryDetail
	for _, h := range m.repo.history {
		if h.StudentID == studentID {
			out = append(out, models.EnrollmentHistoryDetail{EnrollmentHistory: h})
		}
	}
	return out, nil
}

func newStudentFixture() (*StudentService, *mockStudentRepo) {
	repo := newMockStudentRepo()
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
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	svc := NewStudentService(repo, &mockHistoryReader{repo: repo}, classrooms, clock.Fixed(now), nil, nil)
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestCreateStudentWritesInitialHistory(t *testing.T) {
	svc, repo := newStudentFixture()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "12",
		ClassroomID: strPtr(uuidClassroom),
		SectionID:   strPtr(uuidSectionA),
		Parent:      &ParentInfoPayload{FatherName: "Karim Uddin"},
	})
	require.NoError(t, err)
	assert.True(t, student.Active)

	require.Len(t, repo.history, 1)
	assert.Equal(t, uuidClassroom, repo.history[0].ClassroomID)
	assert.Equal(t, uuidSectionA, repo.history[0].SectionID)

	parent, ok := repo.parents[student.ID]
	require.True(t, ok)
	assert.Equal(t, "Karim Uddin", parent.FatherName)
}

func TestCreateStudentWithoutPlacementHasNoHistory(t *testing.T) {
	svc, repo := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Rahim Uddin",
		Roll:     "12",
	})
	require.NoError(t, err)
	assert.Empty(t, repo.history)
}

func TestCreateStudentRejectsHalfPlacement(t *testing.T) {
	svc, _ := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "12",
		ClassroomID: strPtr(uuidClassroom),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCreateStudentRejectsForeignSection(t *testing.T) {
	svc, _ := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "12",
		ClassroomID: strPtr(uuidClassroom),
		SectionID:   strPtr(uuidSectionB),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSection))
}

func TestUpdateAppendsHistoryOnlyOnPlacementChange(t *testing.T) {
	svc, repo := newStudentFixture()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "12",
		ClassroomID: strPtr(uuidClassroom),
		SectionID:   strPtr(uuidSectionA),
	})
	require.NoError(t, err)
	require.Len(t, repo.history, 1)

	// Same placement: no new history row.
	_, err = svc.Update(context.Background(), student.ID, UpdateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "13",
		ClassroomID: strPtr(uuidClassroom),
		SectionID:   strPtr(uuidSectionA),
	})
	require.NoError(t, err)
	assert.Len(t, repo.history, 1)

	// New placement: one appended row, prior row untouched.
	_, err = svc.Update(context.Background(), student.ID, UpdateStudentRequest{
		FullName:    "Rahim Uddin",
		Roll:        "13",
		ClassroomID: strPtr(uuidOtherRoom),
		SectionID:   strPtr(uuidSectionB),
	})
	require.NoError(t, err)
	require.Len(t, repo.history, 2)
	assert.Nil(t, repo.history[0].LeftAt)
	assert.Equal(t, uuidOtherRoom, repo.history[1].ClassroomID)
	assert.Equal(t, uuidSectionB, repo.history[1].SectionID)
}

func TestUpdateUnknownStudent(t *testing.T) {
	svc, _ := newStudentFixture()

	_, err := svc.Update(context.Background(), "ghost", UpdateStudentRequest{
		FullName: "Nobody",
		Roll:     "1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteStudent(t *testing.T) {
	svc, repo := newStudentFixture()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Rahim Uddin",
		Roll:     "12",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student.ID))
	assert.Empty(t, repo.students)

	err = svc.Delete(context.Background(), student.ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
