package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/schoolpanel/admin-api/internal/models"
)

func TestAssignmentRepositoryInsertNew(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teacher_subjects")).
		WithArgs(sqlmock.AnyArg(), "t1", "sub1", "c1", "sec1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("as-1"))

	inserted, err := repo.Insert(context.Background(), &models.TeacherSubject{
		TeacherID:   "t1",
		SubjectID:   "sub1",
		ClassroomID: "c1",
		SectionID:   "sec1",
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryInsertDuplicateTuple(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teacher_subjects")).
		WithArgs(sqlmock.AnyArg(), "t1", "sub1", "c1", "sec1", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows) // ON CONFLICT DO NOTHING returns no row

	inserted, err := repo.Insert(context.Background(), &models.TeacherSubject{
		TeacherID:   "t1",
		SubjectID:   "sub1",
		ClassroomID: "c1",
		SectionID:   "sec1",
	})
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_subjects SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.TeacherSubject{
		ID:          "missing",
		TeacherID:   "t1",
		SubjectID:   "sub1",
		ClassroomID: "c1",
		SectionID:   "sec1",
		CreatedAt:   time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_subjects")).
		WithArgs("as-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "as-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "classroom_id", "section_id", "created_at", "teacher_name", "subject_name", "classroom_name", "section_name"}).
		AddRow("as-1", "t1", "sub1", "c1", "sec1", time.Now(), "Amina Rahman", "Mathematics", "Grade 5", "A")
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_subjects ts")).
		WithArgs("t1").
		WillReturnRows(rows)

	list, err := repo.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Mathematics", list[0].SubjectName)
	require.NoError(t, mock.ExpectationsWereMet())
}
