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

type mockAttendanceRepo struct {
	cells    map[string]map[time.Time]models.TeacherAttendance
	upserts  int
	inserted int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{cells: make(map[string]map[time.Time]models.TeacherAttendance)}
}

func (m *mockAttendanceRepo) teacherCells(teacherID string) map[time.Time]models.TeacherAttendance {
	if m.cells[teacherID] == nil {
		m.cells[teacherID] = make(map[time.Time]models.TeacherAttendance)
	}
	return m.cells[teacherID]
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.TeacherAttendance) (*models.TeacherAttendance, error) {
	m.upserts++
	cells := m.teacherCells(record.TeacherID)
	day := clock.Day(record.Date)
	stored, ok := cells[day]
	if !ok {
		stored = *record
		stored.ID = "att-" + day.Format("20060102")
		stored.Date = day
	} else {
		stored.Present = record.Present
		stored.Note = record.Note
	}
	cells[day] = stored
	return &stored, nil
}

func (m *mockAttendanceRepo) InsertMissing(ctx context.Context, records []models.TeacherAttendance) error {
	for _, rec := range records {
		cells := m.teacherCells(rec.TeacherID)
		day := clock.Day(rec.Date)
		if _, ok := cells[day]; ok {
			continue
		}
		rec.ID = "fill-" + day.Format("20060102")
		rec.Date = day
		cells[day] = rec
		m.inserted++
	}
	return nil
}

func (m *mockAttendanceRepo) ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeacherAttendance, error) {
	var out []models.TeacherAttendance
	for day, rec := range m.teacherCells(teacherID) {
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		out = append(out, rec)
	}
	// Descending by date, matching the query's ORDER BY.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Date.After(out[i].Date) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListDates(ctx context.Context, teacherID string, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	for day := range m.teacherCells(teacherID) {
		if day.Before(from) || day.After(to) {
			continue
		}
		dates = append(dates, day)
	}
	return dates, nil
}

func (m *mockAttendanceRepo) ExistsOn(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	_, ok := m.teacherCells(teacherID)[clock.Day(date)]
	return ok, nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, teacherID string, from, to time.Time) (*models.AttendanceSummary, error) {
	summary := &models.AttendanceSummary{}
	for day, rec := range m.teacherCells(teacherID) {
		if day.Before(from) || day.After(to) {
			continue
		}
		summary.Total++
		if rec.Present {
			summary.Present++
		} else {
			summary.Absent++
		}
	}
	return summary, nil
}

type mockTeacherReader struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherReader) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	for _, t := range m.teachers {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

var testEpoch = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

func newAttendanceFixture(now time.Time) (*AttendanceService, *mockAttendanceRepo, *mockTeacherReader) {
	repo := newMockAttendanceRepo()
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", Email: "amina@school.test", FullName: "Amina Rahman", Active: true},
		"t2": {ID: "t2", Email: "farid@school.test", FullName: "Farid Hossain", Active: false},
	}}
	svc := NewAttendanceService(repo, teachers, testEpoch, clock.Fixed(now), nil, nil)
	return svc, repo, teachers
}

func TestRecordOverwritesExistingDay(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	first, err := svc.Record(context.Background(), "t1", RecordAttendanceRequest{Date: "2025-12-05", Present: false})
	require.NoError(t, err)

	note := "arrived late"
	second, err := svc.Record(context.Background(), "t1", RecordAttendanceRequest{Date: "2025-12-05", Present: true, Note: &note})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Present)
	require.NotNil(t, second.Note)
	assert.Equal(t, "arrived late", *second.Note)
	assert.Len(t, repo.teacherCells("t1"), 1)
}

func TestRecordRejectsInactiveTeacher(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	_, err := svc.Record(context.Background(), "t2", RecordAttendanceRequest{Date: "2025-12-05", Present: true})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveTeacher))
	assert.Empty(t, repo.teacherCells("t2"))
}

func TestRecordUnknownTeacher(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _ := newAttendanceFixture(now)

	_, err := svc.Record(context.Background(), "ghost", RecordAttendanceRequest{Date: "2025-12-05", Present: true})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestViewSynthesizesAbsentDaysWithoutPersisting(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	_, err := svc.Record(context.Background(), "t1", RecordAttendanceRequest{Date: "2025-12-03", Present: true})
	require.NoError(t, err)

	from := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	entries, err := svc.View(context.Background(), "t1", from, to)
	require.NoError(t, err)

	require.Len(t, entries, 5)
	// Newest first.
	assert.Equal(t, to, entries[0].Date)
	assert.Equal(t, from, entries[4].Date)

	for _, entry := range entries {
		if entry.Date.Equal(time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC)) {
			assert.True(t, entry.Present)
			assert.False(t, entry.Synthetic())
			continue
		}
		assert.False(t, entry.Present)
		assert.True(t, entry.Synthetic())
		require.NotNil(t, entry.Note)
		assert.Equal(t, models.AutoAbsentNote, *entry.Note)
	}

	// The read must not have written anything.
	assert.Len(t, repo.teacherCells("t1"), 1)
}

func TestViewRejectsInvertedRange(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _ := newAttendanceFixture(now)

	from := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.View(context.Background(), "t1", from, to)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBackfillIsIdempotent(t *testing.T) {
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	_, err := svc.Record(context.Background(), "t1", RecordAttendanceRequest{Date: "2025-12-04", Present: true})
	require.NoError(t, err)

	require.NoError(t, svc.Backfill(context.Background(), "t1", testEpoch, now))
	// Dec 1..10 minus the explicit Dec 4 row.
	assert.Equal(t, 9, repo.inserted)

	require.NoError(t, svc.Backfill(context.Background(), "t1", testEpoch, now))
	assert.Equal(t, 9, repo.inserted)

	cells := repo.teacherCells("t1")
	assert.Len(t, cells, 10)
	explicit := cells[time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)]
	assert.True(t, explicit.Present)
}

func TestLedgerBackfillsFromEpochAndReturnsDescending(t *testing.T) {
	now := time.Date(2025, 12, 5, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newAttendanceFixture(now)

	rows, err := svc.Ledger(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, testEpoch, rows[4].Date)
	for _, row := range rows {
		assert.False(t, row.Present)
		require.NotNil(t, row.Note)
		assert.Equal(t, models.AutoAbsentNote, *row.Note)
		assert.False(t, row.Synthetic())
	}
}

func TestMarkSelfPresentBackfillsYesterday(t *testing.T) {
	now := time.Date(2025, 12, 3, 8, 30, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	record, err := svc.MarkSelfPresent(context.Background(), "amina@school.test")
	require.NoError(t, err)
	assert.True(t, record.Present)
	assert.Nil(t, record.Note)
	assert.Equal(t, time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC), record.Date)

	yesterday := repo.teacherCells("t1")[time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)]
	assert.False(t, yesterday.Present)
	require.NotNil(t, yesterday.Note)
	assert.Equal(t, models.AutoAbsentNote, *yesterday.Note)
}

func TestMarkSelfPresentDoesNotOverwriteYesterday(t *testing.T) {
	now := time.Date(2025, 12, 3, 8, 30, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	_, err := svc.Record(context.Background(), "t1", RecordAttendanceRequest{Date: "2025-12-02", Present: true})
	require.NoError(t, err)

	_, err = svc.MarkSelfPresent(context.Background(), "amina@school.test")
	require.NoError(t, err)

	yesterday := repo.teacherCells("t1")[time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)]
	assert.True(t, yesterday.Present)
}

func TestMarkSelfPresentSkipsPreEpochYesterday(t *testing.T) {
	now := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	_, err := svc.MarkSelfPresent(context.Background(), "amina@school.test")
	require.NoError(t, err)

	cells := repo.teacherCells("t1")
	assert.Len(t, cells, 1)
	_, hasPreEpoch := cells[time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)]
	assert.False(t, hasPreEpoch)
}

func TestMarkSelfPresentUnknownEmail(t *testing.T) {
	now := time.Date(2025, 12, 3, 8, 30, 0, 0, time.UTC)
	svc, _, _ := newAttendanceFixture(now)

	_, err := svc.MarkSelfPresent(context.Background(), "nobody@school.test")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestMarkSelfPresentIsIdempotentForToday(t *testing.T) {
	now := time.Date(2025, 12, 3, 8, 30, 0, 0, time.UTC)
	svc, repo, _ := newAttendanceFixture(now)

	first, err := svc.MarkSelfPresent(context.Background(), "amina@school.test")
	require.NoError(t, err)
	second, err := svc.MarkSelfPresent(context.Background(), "amina@school.test")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Present)
	assert.Len(t, repo.teacherCells("t1"), 2) // today + backfilled yesterday
}
