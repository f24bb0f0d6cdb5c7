package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRepositoryListTeachersAttachesSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name FROM teachers WHERE active = TRUE ORDER BY full_name, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name"}).AddRow("t1", "Ana").AddRow("t2", "Budi"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ts.teacher_id, s.id, s.name, s.code FROM teacher_subjects ts JOIN subjects s ON s.id = ts.subject_id ORDER BY ts.teacher_id, ts.position, s.id")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "id", "name", "code"}).
			AddRow("t1", "s2", "Physics", "PHY").
			AddRow("t1", "s1", "Mathematics", "MTK"))

	teachers, err := repo.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	require.Len(t, teachers[0].Subjects, 2)
	assert.Equal(t, "s2", teachers[0].Subjects[0].ID)
	assert.Equal(t, "PHY", teachers[0].Subjects[0].Abbreviation)
	assert.Empty(t, teachers[1].Subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepositoryFindTeacherNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name FROM teachers WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindTeacher(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepositoryGroupsAndSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM classes ORDER BY name, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("g1", "X IPA 1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code FROM subjects WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code"}).AddRow("s1", "Mathematics", "MTK"))

	groups, err := repo.ListGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X IPA 1", groups[0].Name)

	subject, err := repo.FindSubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "MTK", subject.Abbreviation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
