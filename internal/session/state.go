// Package session tracks the race-session state of one simulator connection.
// It performs no I/O: Handle returns the effects the caller must carry out.
package session

import (
	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

// FalseStartMessage is shown when a lap is discarded after a false start.
const FalseStartMessage = "Lap ignored due to false start"

// Discard reasons.
const (
	DiscardReplay      = "replay"
	DiscardFalseStart  = "false_start"
	DiscardInvalidTime = "invalid_time"
	DiscardIncomplete  = "incomplete"
)

// Phase is a coarse view of State.
type Phase int

const (
	Idle Phase = iota
	PlayerBound
	Racing
)

func (p Phase) String() string {
	switch p {
	case PlayerBound:
		return "player_bound"
	case Racing:
		return "racing"
	default:
		return "idle"
	}
}

// Effect is an action requested by Handle.
type Effect interface{ isEffect() }

// Send writes a record to the simulator.
type Send struct {
	Command protocol.Command
}

// SendMessage shows a system message on the local screen.
type SendMessage struct {
	Text string
}

// Render redraws the leaderboard for the current track and vehicle.
type Render struct{}

// RecordLap appends a lap to the store. A render follows once it is stored.
type RecordLap struct {
	Lap model.Lap
}

// RefreshVehicle asks the name resolver to look up a mod vehicle.
type RefreshVehicle struct {
	Code string
}

// DiscardLap reports a lap by the bound player that was not recorded.
type DiscardLap struct {
	Reason string
	TimeMs uint32
}

func (Send) isEffect()           {}
func (SendMessage) isEffect()    {}
func (Render) isEffect()         {}
func (RecordLap) isEffect()      {}
func (RefreshVehicle) isEffect() {}
func (DiscardLap) isEffect()     {}

// State is the per-connection session state. The zero value is a fresh
// connection with no player bound.
type State struct {
	PlayerBound  bool   `json:"player_bound"`
	PlayerID     uint8  `json:"player_id"`
	ConnectionID uint8  `json:"connection_id"`
	PlayerName   string `json:"player_name,omitempty"`
	VehicleCode  string `json:"vehicle_code,omitempty"`
	TrackCode    string `json:"track_code,omitempty"`

	Racing         bool `json:"racing"`
	SuppressLap    bool `json:"suppress_lap"`
	WatchingReplay bool `json:"watching_replay"`
}

// New returns the state for a newly established connection.
func New() *State {
	return &State{}
}

// Phase reports where the session is in its lifecycle.
func (s *State) Phase() Phase {
	switch {
	case !s.PlayerBound:
		return Idle
	case s.Racing:
		return Racing
	default:
		return PlayerBound
	}
}

// CanRender reports whether enough is known to draw the leaderboard.
func (s *State) CanRender() bool {
	return s.Racing && s.VehicleCode != "" && s.TrackCode != "" && s.PlayerName != ""
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() State {
	return *s
}

// Handle applies one decoded event and returns the resulting effects in the
// order they must be carried out.
func (s *State) Handle(event protocol.Event) []Effect {
	switch e := event.(type) {
	case protocol.PlayerJoined:
		return s.playerJoined(e)

	case protocol.ConnectionRenamed:
		if s.PlayerBound && e.ConnectionID == s.ConnectionID {
			s.PlayerName = e.Name
		}
		return nil

	case protocol.RaceStarted:
		s.Racing = true
		s.TrackCode = e.TrackCode
		s.SuppressLap = false
		s.WatchingReplay = false
		return s.render(nil)

	case protocol.ReplayState:
		s.WatchingReplay = e.WatchingReplay
		return nil

	case protocol.LapCompleted:
		return s.lapCompleted(e)

	case protocol.ButtonRequest:
		if !e.Requested() {
			return nil
		}
		return s.render(nil)

	case protocol.PenaltyChanged:
		if s.PlayerBound && e.PlayerID == s.PlayerID && e.FalseStart() {
			s.SuppressLap = true
		}
		return nil

	case protocol.KeepAlive:
		return []Effect{Send{Command: protocol.Echo{Raw: e.Raw}}}

	case protocol.RaceEnded:
		s.Racing = false
		s.SuppressLap = false
		s.VehicleCode = ""
		s.TrackCode = ""
		return []Effect{Send{Command: protocol.ClearButtons{}}}
	}

	return nil
}

func (s *State) playerJoined(e protocol.PlayerJoined) []Effect {
	if !e.Local() {
		return nil
	}

	s.PlayerBound = true
	s.PlayerID = e.PlayerID
	s.ConnectionID = e.ConnectionID
	s.PlayerName = e.Name
	s.VehicleCode = e.VehicleCode
	s.SuppressLap = false

	var effects []Effect
	if !e.OfficialVehicle {
		effects = append(effects, RefreshVehicle{Code: e.VehicleCode})
	}
	return s.render(effects)
}

func (s *State) lapCompleted(e protocol.LapCompleted) []Effect {
	if !s.PlayerBound || e.PlayerID != s.PlayerID {
		return nil
	}

	// replay and false-start are separate gates; a replay lap leaves the
	// suppression pending for the next live lap
	if s.WatchingReplay {
		return []Effect{DiscardLap{Reason: DiscardReplay, TimeMs: e.TimeMs}}
	}

	if s.SuppressLap {
		s.SuppressLap = false
		return []Effect{
			SendMessage{Text: FalseStartMessage},
			DiscardLap{Reason: DiscardFalseStart, TimeMs: e.TimeMs},
		}
	}

	if e.TimeMs >= protocol.InvalidLapTimeMs {
		return []Effect{DiscardLap{Reason: DiscardInvalidTime, TimeMs: e.TimeMs}}
	}

	if s.PlayerName == "" || s.VehicleCode == "" || s.TrackCode == "" {
		return []Effect{DiscardLap{Reason: DiscardIncomplete, TimeMs: e.TimeMs}}
	}

	return []Effect{RecordLap{Lap: model.Lap{
		PlayerName:  s.PlayerName,
		VehicleCode: s.VehicleCode,
		TrackCode:   s.TrackCode,
		TimeMs:      e.TimeMs,
	}}}
}

func (s *State) render(effects []Effect) []Effect {
	if s.CanRender() {
		effects = append(effects, Render{})
	}
	return effects
}
