package service

import (
	"bytes"
	"fmt"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Feedback"

var exportHeader = []string{"Submitted At", "Rating", "Name", "Comments"}

// ExportReviewsXLSX 대시보드 다운로드용 피드백 엑셀
func ExportReviewsXLSX(business *model.Business, reviews []model.Review) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(exportSheet, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	widths := map[string]float64{"A": 22, "B": 8, "C": 24, "D": 80}
	for col, w := range widths {
		if err := f.SetColWidth(exportSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range reviews {
		row := []interface{}{
			r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			r.Rating,
			r.ReviewerName(),
			r.Comments,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   business.Name + " feedback",
		Creator: "reviewfunnel",
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
