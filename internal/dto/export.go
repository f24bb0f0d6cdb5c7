package dto

import "time"

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportTimetableRequest identifies whose weekly grid to render.
type ExportTimetableRequest struct {
	EntityType string       `form:"entityType" json:"entity_type" validate:"required,oneof=TEACHER GROUP teacher group"`
	EntityID   string       `form:"entityId" json:"entity_id" validate:"required"`
	Format     ExportFormat `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// TimetableFile is a rendered export.
type TimetableFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// PublishedExport points at a stored export through a signed link.
type PublishedExport struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
