package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

func newExportFixture(t *testing.T, withStorage bool) *TimetableExportService {
	t.Helper()
	store := NewScheduleStore(nil)
	store.Add(mondayAt("a1", "07:00", "07:50", "S1", "T1", "G1"))
	store.Add(mondayAt("a2", "07:50", "08:40", "S2", "T2", "G1"))

	var files exportFileStore
	var signer exportLinkSigner
	if withStorage {
		disk, err := storage.NewDiskStore(t.TempDir())
		require.NoError(t, err)
		files = disk
		signer = storage.NewLinkSigner("test-secret", time.Hour)
	}
	return NewTimetableExportService(store, defaultGrid(t), newFakeRegistry(), files, signer, nil, nil, TimetableExportConfig{APIPrefix: "/api/v1/"})
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportGroupTimetableCSV(t *testing.T) {
	svc := newExportFixture(t, false)

	file, err := svc.Render(context.Background(), dto.ExportTimetableRequest{EntityType: "group", EntityID: "G1"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "timetable_group_G1.csv", file.Name)

	records := readCSV(t, file.Data)
	require.Len(t, records, 1+len(DefaultTimeBlocks))
	assert.Equal(t, []string{"Time", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, records[0])
	assert.Equal(t, "07:00-07:50", records[1][0])
	assert.Equal(t, "MAT / Ana Lopez", records[1][1])
	assert.Equal(t, "BIO / Budi Santoso", records[2][1])
	assert.Equal(t, "", records[1][2])
	assert.Equal(t, "Break", records[4][1])
}

func TestExportTeacherTimetableShowsGroups(t *testing.T) {
	svc := newExportFixture(t, false)

	file, err := svc.Render(context.Background(), dto.ExportTimetableRequest{EntityType: "TEACHER", EntityID: "T1", Format: dto.ExportFormatCSV})
	require.NoError(t, err)
	records := readCSV(t, file.Data)
	assert.Equal(t, "MAT / 10A", records[1][1])
	assert.Equal(t, "", records[2][1])
}

func TestExportPDF(t *testing.T) {
	svc := newExportFixture(t, false)

	file, err := svc.Render(context.Background(), dto.ExportTimetableRequest{EntityType: "GROUP", EntityID: "G1", Format: dto.ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportRejectsInvalidRequests(t *testing.T) {
	svc := newExportFixture(t, false)
	ctx := context.Background()

	_, err := svc.Render(ctx, dto.ExportTimetableRequest{EntityType: "room", EntityID: "R1"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Render(ctx, dto.ExportTimetableRequest{EntityType: "group", EntityID: "G1", Format: "xlsx"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Render(ctx, dto.ExportTimetableRequest{EntityType: "group", EntityID: "G9"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestExportPublishAndDownload(t *testing.T) {
	svc := newExportFixture(t, true)

	published, err := svc.Publish(context.Background(), dto.ExportTimetableRequest{EntityType: "group", EntityID: "G1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/exports/files/"+published.Token, published.URL)
	assert.True(t, published.ExpiresAt.After(time.Now()))

	file, err := svc.Download(published.Token)
	require.NoError(t, err)
	assert.Equal(t, "timetable_group_G1.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.NotEmpty(t, file.Data)

	_, err = svc.Download(published.Token + "x")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	removed, err := svc.Sweep()
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestExportPublishWithoutStorage(t *testing.T) {
	svc := newExportFixture(t, false)

	_, err := svc.Publish(context.Background(), dto.ExportTimetableRequest{EntityType: "group", EntityID: "G1"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))

	_, err = svc.Download("token")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))

	removed, err := svc.Sweep()
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "10_A-B", sanitizeFilename("10 A/B"))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 150)), 100)
}
