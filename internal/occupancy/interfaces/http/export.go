package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	occupancyapp "parking-analytics/internal/occupancy/application"
	"parking-analytics/internal/occupancy/domain/analytics"
)

// Report is the content of a weekly occupancy export.
type Report struct {
	Title       string
	FacilityID  string
	GeneratedAt time.Time
	Overview    occupancyapp.Overview
}

func (r Report) facilityLabel() string {
	if r.FacilityID == "" {
		return "all lots"
	}
	return r.FacilityID
}

// BuildOccupancyPDF renders the weekly histogram and expected profile as a PDF.
func BuildOccupancyPDF(report Report) ([]byte, error) {
	weekly := report.Overview.Weekly
	expected := report.Overview.Expected

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, report.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Facility: %s", report.facilityLabel()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Week of: %s", weekly.WeekStart.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total entries: %d", weekly.Total))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Entries", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Unpermitted", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Expected", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for day, label := range weekly.Labels {
		pdf.CellFormat(30, 6, label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", valueAt(weekly.Counts, day)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", valueAt(weekly.Unpermitted, day)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.1f", averageAt(expected, day)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildOccupancyXLSX renders the weekly histogram and expected profile as a workbook.
func BuildOccupancyXLSX(report Report) ([]byte, error) {
	weekly := report.Overview.Weekly
	expected := report.Overview.Expected

	f := excelize.NewFile()
	defer f.Close()
	weeklySheet := "weekly"
	expectedSheet := "expected"
	if err := f.SetSheetName("Sheet1", weeklySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(expectedSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(weeklySheet, "A1", report.Title)
	_ = f.SetCellValue(weeklySheet, "A2", "Facility")
	_ = f.SetCellValue(weeklySheet, "B2", report.facilityLabel())
	_ = f.SetCellValue(weeklySheet, "A3", "Week of")
	_ = f.SetCellValue(weeklySheet, "B3", weekly.WeekStart.Format("2006-01-02"))
	_ = f.SetCellValue(weeklySheet, "A4", "Total")
	_ = f.SetCellValue(weeklySheet, "B4", weekly.Total)

	_ = f.SetCellValue(weeklySheet, "A6", "Day")
	_ = f.SetCellValue(weeklySheet, "B6", "Entries")
	_ = f.SetCellValue(weeklySheet, "C6", "Unpermitted")
	for day, label := range weekly.Labels {
		row := day + 7
		_ = f.SetCellValue(weeklySheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(weeklySheet, fmt.Sprintf("B%d", row), valueAt(weekly.Counts, day))
		_ = f.SetCellValue(weeklySheet, fmt.Sprintf("C%d", row), valueAt(weekly.Unpermitted, day))
	}

	_ = f.SetCellValue(expectedSheet, "A1", "Day")
	_ = f.SetCellValue(expectedSheet, "B1", "Average")
	for week, start := range expected.WeekStarts {
		cell, err := excelize.CoordinatesToCellName(week+3, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(expectedSheet, cell, start.Format("2006-01-02"))
	}
	for day, label := range expected.Labels {
		row := day + 2
		_ = f.SetCellValue(expectedSheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(expectedSheet, fmt.Sprintf("B%d", row), averageAt(expected, day))
		if day >= len(expected.WeekCounts) {
			continue
		}
		for week, count := range expected.WeekCounts[day] {
			cell, err := excelize.CoordinatesToCellName(week+3, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(expectedSheet, cell, count)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func valueAt(values []int, i int) int {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}

func averageAt(profile analytics.ExpectedProfile, day int) float64 {
	if day < 0 || day >= len(profile.Averages) {
		return 0
	}
	return profile.Averages[day]
}
