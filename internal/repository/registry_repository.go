package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RegistryRepository reads teachers, subjects and groups from the school database.
// Groups are stored as classes.
type RegistryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository constructs a RegistryRepository.
func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// ListTeachers returns active teachers ordered by name with their qualified subjects.
func (r *RegistryRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name FROM teachers WHERE active = TRUE ORDER BY full_name, id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	const subjectsQuery = `SELECT ts.teacher_id, s.id, s.name, s.code FROM teacher_subjects ts JOIN subjects s ON s.id = ts.subject_id ORDER BY ts.teacher_id, ts.position, s.id`
	var rows []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &rows, subjectsQuery); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	bySubject := make(map[string][]models.Subject, len(teachers))
	for _, row := range rows {
		bySubject[row.TeacherID] = append(bySubject[row.TeacherID], row.Subject)
	}
	for i := range teachers {
		teachers[i].Subjects = bySubject[teachers[i].ID]
	}
	return teachers, nil
}

// FindTeacher loads a teacher with subjects. A missing teacher yields sql.ErrNoRows.
func (r *RegistryRepository) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	const subjectsQuery = `SELECT s.id, s.name, s.code FROM teacher_subjects ts JOIN subjects s ON s.id = ts.subject_id WHERE ts.teacher_id = $1 ORDER BY ts.position, s.id`
	if err := r.db.SelectContext(ctx, &teacher.Subjects, subjectsQuery, id); err != nil {
		return nil, fmt.Errorf("list subjects for teacher: %w", err)
	}
	return &teacher, nil
}

// ListSubjects returns the global subject list.
func (r *RegistryRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, code FROM subjects ORDER BY name, id`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindSubject loads a subject by id.
func (r *RegistryRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, code FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListGroups returns every class as a group.
func (r *RegistryRepository) ListGroups(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT id, name FROM classes ORDER BY name, id`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindGroup loads a class by id.
func (r *RegistryRepository) FindGroup(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name FROM classes WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}
