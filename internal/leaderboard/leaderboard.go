// Package leaderboard lays out the fastest-lap panels drawn on the simulator
// screen as InSim buttons.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

// Button styles.
const (
	styleTitle      uint8 = 0x41 // left aligned, title colour
	styleBackground uint8 = 32   // dark
	styleRow        uint8 = 99   // left aligned, dark, yellow
)

// Panel geometry in the simulator's 200x200 button grid.
const (
	panelLeft   = 2
	panelTop    = 18
	panelWidth  = 30
	titleHeight = 10
	rowHeight   = 7
	rowMargin   = 1
	panelGap    = 2
)

// HighlightPrefix colours the row of the player looking at the board.
const HighlightPrefix = "^3"

// Panel titles and sizes.
const (
	SameVehicleTitle = "Fastest Laps (Same Car)"
	SameVehicleSlots = 3
	AllVehicleTitle  = "Fastest Laps (All Cars)"
	AllVehicleSlots  = 5
)

// LapFinder lists laps fastest first.
type LapFinder interface {
	FindOrdered(ctx context.Context, trackCode string, vehicleCode *string, limit int) ([]model.Lap, error)
}

// NameResolver resolves vehicle codes to display names.
type NameResolver interface {
	NameFor(ctx context.Context, code string) string
}

// Panel is one titled list of laps.
type Panel struct {
	Title       string
	Slots       int
	Laps        []model.Lap
	ShowVehicle bool

	// Highlight is the player name whose rows are coloured.
	Highlight string
}

// Layout describes a rendered panel.
type Layout struct {
	Height int
	NextID int
}

// Request selects what the board shows.
type Request struct {
	Track   string
	Vehicle string
	Player  string
}

// Board builds the full leaderboard for a session.
type Board struct {
	laps     LapFinder
	vehicles NameResolver
}

// NewBoard creates a board backed by a lap store and a vehicle name resolver
func NewBoard(laps LapFinder, vehicles NameResolver) *Board {
	return &Board{laps: laps, vehicles: vehicles}
}

// Build queries the store and lays out the same-vehicle panel followed by the
// all-vehicle panel below it. Button IDs start at 0.
func (b *Board) Build(ctx context.Context, req Request) ([]protocol.Button, error) {
	vehicle := req.Vehicle
	sameVehicle, err := b.laps.FindOrdered(ctx, req.Track, &vehicle, SameVehicleSlots)
	if err != nil {
		return nil, fmt.Errorf("find laps for %s/%s: %w", req.Track, req.Vehicle, err)
	}

	allVehicles, err := b.laps.FindOrdered(ctx, req.Track, nil, AllVehicleSlots)
	if err != nil {
		return nil, fmt.Errorf("find laps for %s: %w", req.Track, err)
	}

	buttons, first, err := b.RenderPanel(ctx, Panel{
		Title:     SameVehicleTitle,
		Slots:     SameVehicleSlots,
		Laps:      sameVehicle,
		Highlight: req.Player,
	}, 0, 0)
	if err != nil {
		return nil, err
	}

	second, _, err := b.RenderPanel(ctx, Panel{
		Title:       AllVehicleTitle,
		Slots:       AllVehicleSlots,
		Laps:        allVehicles,
		ShowVehicle: true,
		Highlight:   req.Player,
	}, first.Height+panelGap, first.NextID)
	if err != nil {
		return nil, err
	}

	return append(buttons, second...), nil
}

// RenderPanel lays out a title, a background and one row per slot. Slots
// without a lap show a placeholder.
func (b *Board) RenderPanel(ctx context.Context, p Panel, yOffset, firstID int) ([]protocol.Button, Layout, error) {
	height := titleHeight + p.Slots*rowHeight + panelGap
	count := 2 + p.Slots

	if firstID < 0 || firstID+count-1 > protocol.MaxButtonID {
		return nil, Layout{}, fmt.Errorf("button ids %d..%d out of range", firstID, firstID+count-1)
	}
	if panelTop+yOffset+height > 200 {
		return nil, Layout{}, fmt.Errorf("panel at offset %d does not fit on screen", yOffset)
	}

	buttons := make([]protocol.Button, 0, count)
	id := firstID

	buttons = append(buttons, newButton(id, styleTitle, panelLeft, panelTop+yOffset, panelWidth, titleHeight, p.Title))
	id++
	buttons = append(buttons, newButton(id, styleBackground, panelLeft, panelTop+yOffset, panelWidth, height, ""))
	id++

	for i := 0; i < p.Slots; i++ {
		top := panelTop + titleHeight + yOffset + i*rowHeight
		buttons = append(buttons, newButton(id, styleRow, panelLeft+rowMargin, top, panelWidth-2*rowMargin, rowHeight, b.rowText(ctx, p, i)))
		id++
	}

	return buttons, Layout{Height: height, NextID: id}, nil
}

func (b *Board) rowText(ctx context.Context, p Panel, i int) string {
	if i >= len(p.Laps) {
		return fmt.Sprintf("%d. ----  ----", i+1)
	}

	lap := p.Laps[i]

	var sb strings.Builder
	if p.Highlight != "" && lap.PlayerName == p.Highlight {
		sb.WriteString(HighlightPrefix)
	}
	fmt.Fprintf(&sb, "%d. %s  %s", i+1, lap.PlayerName, FormatLapTime(lap.TimeMs))
	if p.ShowVehicle {
		sb.WriteString("  ")
		sb.WriteString(b.vehicles.NameFor(ctx, lap.VehicleCode))
	}
	return sb.String()
}

func newButton(id int, style uint8, left, top, width, height int, text string) protocol.Button {
	return protocol.Button{
		ReqI:   1,
		UCID:   0,
		ID:     uint8(id),
		Style:  style,
		Left:   uint8(left),
		Top:    uint8(top),
		Width:  uint8(width),
		Height: uint8(height),
		Text:   text,
	}
}
