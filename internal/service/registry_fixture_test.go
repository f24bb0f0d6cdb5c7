package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type fakeRegistry struct {
	teachers []models.Teacher
	subjects []models.Subject
	groups   []models.Group
	err      error
}

func newFakeRegistry() *fakeRegistry {
	s1 := models.Subject{ID: "S1", Name: "Mathematics", Abbreviation: "MAT"}
	s2 := models.Subject{ID: "S2", Name: "Biology", Abbreviation: "BIO"}
	s3 := models.Subject{ID: "S3", Name: "History", Abbreviation: "HIS"}
	return &fakeRegistry{
		teachers: []models.Teacher{
			{ID: "T1", Name: "Ana Lopez", Subjects: []models.Subject{s1, s3}},
			{ID: "T2", Name: "Budi Santoso", Subjects: []models.Subject{s2}},
		},
		subjects: []models.Subject{s1, s2, s3},
		groups: []models.Group{
			{ID: "G1", Name: "10A"},
			{ID: "G2", Name: "10B"},
		},
	}
}

func (f *fakeRegistry) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return f.teachers, f.err
}

func (f *fakeRegistry) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return f.subjects, f.err
}

func (f *fakeRegistry) ListGroups(ctx context.Context) ([]models.Group, error) {
	return f.groups, f.err
}

func (f *fakeRegistry) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.teachers {
		if f.teachers[i].ID == id {
			return &f.teachers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistry) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			return &f.subjects[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistry) FindGroup(ctx context.Context, id string) (*models.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.groups {
		if f.groups[i].ID == id {
			return &f.groups[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func defaultGrid(t *testing.T) *TimeGrid {
	t.Helper()
	grid, err := NewTimeGrid(TimeGridConfig{})
	require.NoError(t, err)
	return grid
}

func mondayAt(id, start, end, subject, teacher, group string) models.Assignment {
	return models.Assignment{
		ID:        id,
		Weekday:   models.Monday,
		StartTime: start,
		EndTime:   end,
		SubjectID: subject,
		TeacherID: teacher,
		GroupID:   group,
	}
}
