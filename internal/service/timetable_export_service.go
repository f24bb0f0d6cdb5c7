package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type exportFileStore interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	Sweep(ttl time.Duration) ([]string, error)
}

type exportLinkSigner interface {
	Sign(id, name string) (string, time.Time, error)
	Verify(token string) (id, name string, err error)
}

// TimetableExportConfig tunes export behaviour.
type TimetableExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// TimetableExportService renders one entity's weekly grid to CSV or PDF.
type TimetableExportService struct {
	store     *ScheduleStore
	grid      *TimeGrid
	registry  entityRegistry
	csv       tableRenderer
	pdf       tableRenderer
	files     exportFileStore
	signer    exportLinkSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableExportConfig
}

// NewTimetableExportService constructs the service. files and signer may be nil, in
// which case Publish is unavailable.
func NewTimetableExportService(
	store *ScheduleStore,
	grid *TimeGrid,
	registry entityRegistry,
	files exportFileStore,
	signer exportLinkSigner,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableExportConfig,
) *TimetableExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &TimetableExportService{
		store:     store,
		grid:      grid,
		registry:  registry,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		files:     files,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Render builds the grid and encodes it.
func (s *TimetableExportService) Render(ctx context.Context, req dto.ExportTimetableRequest) (*dto.TimetableFile, error) {
	if req.Format == "" {
		req.Format = dto.ExportFormatCSV
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	kind := models.EntityKind(strings.ToUpper(req.EntityType))
	table, err := s.buildTable(ctx, kind, req.EntityID)
	if err != nil {
		return nil, err
	}

	var data []byte
	contentType := "text/csv"
	switch req.Format {
	case dto.ExportFormatPDF:
		data, err = s.pdf.Render(table)
		contentType = "application/pdf"
	default:
		data, err = s.csv.Render(table)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	name := fmt.Sprintf("timetable_%s_%s.%s", strings.ToLower(string(kind)), sanitizeFilename(req.EntityID), req.Format)
	return &dto.TimetableFile{Name: name, ContentType: contentType, Data: data}, nil
}

// Publish renders the export, stores it and returns a signed download link.
func (s *TimetableExportService) Publish(ctx context.Context, req dto.ExportTimetableRequest) (*dto.PublishedExport, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export storage not configured")
	}
	file, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	stored, err := s.files.Save(id+"/"+file.Name, file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(id, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("timetable export published", zap.String("export_id", id), zap.String("name", file.Name))
	return &dto.PublishedExport{
		Name:      file.Name,
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/files/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *TimetableExportService) Download(token string) (*dto.TimetableFile, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export storage not configured")
	}
	_, name, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link invalid or expired")
	}
	data, err := s.files.Read(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	contentType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	return &dto.TimetableFile{Name: base, ContentType: contentType, Data: data}, nil
}

// Sweep removes stored exports older than the configured ttl.
func (s *TimetableExportService) Sweep() ([]string, error) {
	if s.files == nil {
		return nil, nil
	}
	removed, err := s.files.Sweep(s.cfg.ResultTTL)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *TimetableExportService) buildTable(ctx context.Context, kind models.EntityKind, entityID string) (export.Table, error) {
	title, err := s.entityName(ctx, kind, entityID)
	if err != nil {
		return export.Table{}, err
	}
	names, err := s.loadNames(ctx)
	if err != nil {
		return export.Table{}, err
	}

	weekdays := s.grid.Weekdays()
	headers := make([]string, 0, len(weekdays)+1)
	headers = append(headers, "Time")
	for _, day := range weekdays {
		headers = append(headers, weekdayLabel(day))
	}

	isTeacher := kind.IsTeacher()
	assignments := s.store.Find(func(a models.Assignment) bool {
		return a.References(entityID, isTeacher)
	})

	blocks := s.grid.Blocks()
	table := export.Table{Title: "Timetable " + title, Headers: headers, Rows: make([][]string, 0, len(blocks)), Shaded: make(map[int]bool)}
	for r, block := range blocks {
		row := make([]string, 0, len(headers))
		row = append(row, block.Label())
		for _, day := range weekdays {
			if block.IsBreak {
				row = append(row, "Break")
				continue
			}
			row = append(row, names.cell(assignments, day, block, isTeacher))
		}
		if block.IsBreak {
			table.Shaded[r] = true
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func (s *TimetableExportService) entityName(ctx context.Context, kind models.EntityKind, id string) (string, error) {
	if s.registry == nil {
		return id, nil
	}
	if kind.IsTeacher() {
		teacher, err := s.registry.FindTeacher(ctx, id)
		if err != nil {
			return "", registryError(err, "teacher")
		}
		return teacher.Name, nil
	}
	group, err := s.registry.FindGroup(ctx, id)
	if err != nil {
		return "", registryError(err, "group")
	}
	return group.Name, nil
}

func (s *TimetableExportService) loadNames(ctx context.Context) (*exportNames, error) {
	names := &exportNames{subjects: map[string]string{}, teachers: map[string]string{}, groups: map[string]string{}}
	if s.registry == nil {
		return names, nil
	}
	subjects, err := s.registry.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	for _, subject := range subjects {
		label := subject.Abbreviation
		if label == "" {
			label = subject.Name
		}
		names.subjects[subject.ID] = label
	}
	teachers, err := s.registry.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	for _, teacher := range teachers {
		names.teachers[teacher.ID] = teacher.Name
	}
	groups, err := s.registry.ListGroups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	for _, group := range groups {
		names.groups[group.ID] = group.Name
	}
	return names, nil
}

type exportNames struct {
	subjects map[string]string
	teachers map[string]string
	groups   map[string]string
}

func (n *exportNames) cell(assignments []models.Assignment, day models.Weekday, block models.TimeBlock, isTeacher bool) string {
	for _, a := range assignments {
		if a.Weekday != day || !models.Overlaps(a.StartTime, a.EndTime, block.StartTime, block.EndTime) {
			continue
		}
		subject := lookupName(n.subjects, a.SubjectID)
		counterpart := lookupName(n.teachers, a.TeacherID)
		if isTeacher {
			counterpart = lookupName(n.groups, a.GroupID)
		}
		if counterpart == "" {
			return subject
		}
		return subject + " / " + counterpart
	}
	return ""
}

func lookupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func weekdayLabel(day models.Weekday) string {
	raw := string(day)
	if raw == "" {
		return raw
	}
	return raw[:1] + strings.ToLower(raw[1:])
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
