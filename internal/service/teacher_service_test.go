package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolpanel/admin-api/internal/models"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]*models.Teacher
}

func newMockTeacherRepo(teachers ...*models.Teacher) *mockTeacherRepo {
	repo := &mockTeacherRepo{teachers: make(map[string]*models.Teacher)}
	for _, t := range teachers {
		repo.teachers[t.ID] = t
	}
	return repo
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range m.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	for _, t := range m.teachers {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for _, t := range m.teachers {
		if t.Email == email && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "t-" + teacher.Email
	}
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Deactivate(ctx context.Context, id string) error {
	if t, ok := m.teachers[id]; ok {
		t.Active = false
	}
	return nil
}

func (m *mockTeacherRepo) UpdatePhoto(ctx context.Context, id string, photoPath *string) error {
	if t, ok := m.teachers[id]; ok {
		t.PhotoPath = photoPath
	}
	return nil
}

type mockUserWriter struct {
	*mockUserRepo
	passwords map[string]string
}

func (m *mockUserWriter) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.passwords == nil {
		m.passwords = make(map[string]string)
	}
	m.passwords[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type mockStorage struct {
	saved   map[string][]byte
	deleted []string
}

func (m *mockStorage) SaveStream(filename string, r io.Reader) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockStorage) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	delete(m.saved, filename)
	return nil
}

func newTeacherFixture(teachers ...*models.Teacher) (*TeacherService, *mockTeacherRepo, *mockUserWriter, *mockStorage) {
	repo := newMockTeacherRepo(teachers...)
	users := &mockUserWriter{mockUserRepo: newMockUserRepo()}
	store := &mockStorage{}
	svc := NewTeacherService(repo, users, store, nil, nil)
	return svc, repo, users, store
}

func TestCreateTeacherCreatesLoginAccount(t *testing.T) {
	svc, repo, users, _ := newTeacherFixture()

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		Email:    "Amina@School.Test",
		FullName: "Amina Rahman",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "amina@school.test", teacher.Email)
	assert.True(t, teacher.Active)
	require.Contains(t, repo.teachers, teacher.ID)

	user, err := users.FindByEmail(context.Background(), "amina@school.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateTeacherDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTeacherFixture(&models.Teacher{
		ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true,
	})

	_, err := svc.Create(context.Background(), CreateTeacherRequest{
		Email:    "amina@school.test",
		FullName: "Impostor",
		Password: "whatever1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestDeactivateTeacherKeepsRecord(t *testing.T) {
	svc, repo, _, _ := newTeacherFixture(&models.Teacher{
		ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true,
	})

	require.NoError(t, svc.Deactivate(context.Background(), "t1"))
	assert.False(t, repo.teachers["t1"].Active)

	err := svc.Deactivate(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUploadPhotoReplacesPrevious(t *testing.T) {
	old := "teachers/t1/old.jpg"
	svc, repo, _, store := newTeacherFixture(&models.Teacher{
		ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true, PhotoPath: &old,
	})

	path, err := svc.UploadPhoto(context.Background(), "t1", "portrait.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))
	require.NotNil(t, repo.teachers["t1"].PhotoPath)
	assert.Equal(t, path, *repo.teachers["t1"].PhotoPath)
	assert.Contains(t, store.deleted, old)
}

func TestUploadPhotoRejectsUnknownFormat(t *testing.T) {
	svc, _, _, _ := newTeacherFixture(&models.Teacher{
		ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true,
	})

	_, err := svc.UploadPhoto(context.Background(), "t1", "script.sh", strings.NewReader("#!"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestResetPasswordUpdatesLogin(t *testing.T) {
	svc, _, users, _ := newTeacherFixture(&models.Teacher{
		ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true,
	})
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "u1", Email: "amina@school.test", Role: models.RoleTeacher, Active: true,
	}))

	require.NoError(t, svc.ResetPassword(context.Background(), "t1", models.ChangePasswordRequest{NewPassword: "fresh-password"}))
	hash := users.passwords["u1"]
	require.NotEmpty(t, hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("fresh-password")))
}
