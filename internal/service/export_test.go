package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/model"
)

func TestExportLaps(t *testing.T) {
	laps := []model.Lap{
		{PlayerName: "Alice", VehicleCode: "XRG", TrackCode: "BL1", TimeMs: 83456, CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{PlayerName: "Bob", VehicleCode: "XRG", TrackCode: "BL1", TimeMs: 84000, CreatedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportLaps(context.Background(), &buf, laps, NewVehicleService(nil, nil, zap.NewNop())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Laps")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Player", rows[0][1])
	assert.Equal(t, []string{"1", "Alice", "1:23.45", "83456", "XR GT", "XRG", "Blackwood GP", "2024-03-01 12:00:00"}, rows[1])
	assert.Equal(t, "Bob", rows[2][1])
}
