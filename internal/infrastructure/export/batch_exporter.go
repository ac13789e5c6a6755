// Package export renders the hand-off artifacts that accompany a forwarded
// batch.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// BatchExporter renders a forwarded batch's application snapshots as an
// xlsx manifest.
type BatchExporter struct {
	sheetName string
	logger    *zap.Logger
}

// NewBatchExporter creates a new batch exporter
func NewBatchExporter(sheetName string, logger *zap.Logger) *BatchExporter {
	if sheetName == "" {
		sheetName = "Applications"
	}
	return &BatchExporter{
		sheetName: sheetName,
		logger:    logger,
	}
}

var manifestHeader = []string{
	"#", "Request ID", "Trainee", "Institution", "Course", "Duration (weeks)", "Skills",
}

// Manifest renders the batch as an xlsx workbook. The rows follow the
// snapshot positions, so the file shows exactly what was forwarded.
func (e *BatchExporter) Manifest(batch *entity.ForwardedBatch) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, e.sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := e.writeSummary(f, batch); err != nil {
		return nil, err
	}

	headerRow := 6
	for col, title := range manifestHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		if err := f.SetCellValue(e.sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, snapshot := range batch.Applications {
		row := headerRow + 1 + i
		values := []interface{}{
			snapshot.Position,
			snapshot.RequestID,
			snapshot.TraineeName,
			snapshot.Institution,
			snapshot.Course,
			snapshot.DurationWeeks,
			snapshot.Skills,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(e.sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", snapshot.Position, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Batch manifest rendered",
		zap.Int64("batch_id", batch.ID),
		zap.String("batch_no", batch.BatchNo),
		zap.Int("applications", len(batch.Applications)))

	return buf.Bytes(), nil
}

func (e *BatchExporter) writeSummary(f *excelize.File, batch *entity.ForwardedBatch) error {
	summary := map[string]interface{}{
		"A1": "Batch",
		"B1": batch.BatchNo,
		"A2": "Department",
		"B2": batch.Department,
		"A3": "Forwarded by",
		"B3": batch.ForwardedBy,
		"A4": "Forwarded at",
		"B4": batch.ForwardedAt.Format("2006-01-02 15:04"),
	}
	for cell, value := range summary {
		if err := f.SetCellValue(e.sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}
