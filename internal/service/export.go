package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/djh20/lfs-leaderboard/internal/leaderboard"
	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/track"
)

// NameResolver resolves vehicle codes to display names
type NameResolver interface {
	NameFor(ctx context.Context, code string) string
}

// ExportLaps writes laps, in the order given, to an Excel workbook
func ExportLaps(ctx context.Context, w io.Writer, laps []model.Lap, vehicles NameResolver) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Laps"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"Rank", "Player", "Lap Time", "Time (ms)", "Vehicle", "Vehicle Code", "Track", "Recorded At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, lap := range laps {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), lap.PlayerName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), leaderboard.FormatLapTime(lap.TimeMs))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), lap.TimeMs)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), vehicles.NameFor(ctx, lap.VehicleCode))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), lap.VehicleCode)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), track.NameFor(lap.TrackCode))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), lap.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "C", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 24)
	f.SetColWidth(sheetName, "F", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 28)
	f.SetColWidth(sheetName, "H", "H", 20)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
