package protocol

// Event is a decoded inbound record. The set of implementations is closed: only
// types in this package satisfy it.
type Event interface {
	isEvent()
}

// PlayerJoined is decoded from IS_NPL.
type PlayerJoined struct {
	PlayerID     uint8
	ConnectionID uint8
	AI           bool
	Remote       bool
	Name         string
	VehicleCode  string

	// OfficialVehicle is false when the vehicle code was derived from a mod identifier.
	OfficialVehicle bool
}

// Local reports whether the player is the human driving on this simulator.
func (e PlayerJoined) Local() bool {
	return !e.AI && !e.Remote
}

// ConnectionRenamed is decoded from IS_CPR.
type ConnectionRenamed struct {
	ConnectionID uint8
	Name         string
}

// RaceStarted is decoded from IS_RST.
type RaceStarted struct {
	TrackCode string
}

// ReplayState is decoded from IS_STA.
type ReplayState struct {
	WatchingReplay bool
}

// LapCompleted is decoded from IS_LAP.
type LapCompleted struct {
	PlayerID uint8
	TimeMs   uint32
}

// ButtonRequest is decoded from IS_BFN.
type ButtonRequest struct {
	SubType uint8
}

// Requested reports whether the user asked for the overlay (SHIFT+B / SHIFT+I).
func (e ButtonRequest) Requested() bool {
	return e.SubType == BFN_REQUEST
}

// PenaltyChanged is decoded from IS_PEN.
type PenaltyChanged struct {
	PlayerID   uint8
	OldPenalty uint8
	NewPenalty uint8
	Reason     uint8
}

// FalseStart reports whether this is a fresh false-start penalty.
func (e PenaltyChanged) FalseStart() bool {
	return e.OldPenalty == PENALTY_NONE && e.Reason == PENR_FALSE_START
}

// KeepAlive is an IS_TINY with sub-type TINY_NONE. Raw holds the record verbatim so it
// can be echoed.
type KeepAlive struct {
	Raw []byte
}

// RaceEnded is an IS_TINY with sub-type TINY_REN.
type RaceEnded struct{}

func (PlayerJoined) isEvent()      {}
func (ConnectionRenamed) isEvent() {}
func (RaceStarted) isEvent()       {}
func (ReplayState) isEvent()       {}
func (LapCompleted) isEvent()      {}
func (ButtonRequest) isEvent()     {}
func (PenaltyChanged) isEvent()    {}
func (KeepAlive) isEvent()         {}
func (RaceEnded) isEvent()         {}

// Command is an outbound record to be encoded.
type Command interface {
	isCommand()
}

// Init is the IS_ISI handshake.
type Init struct {
	Flags         uint16
	Version       uint8
	AdminPassword string
	ProgramName   string
}

// Message is an IS_MSL message shown on the local screen.
type Message struct {
	Text  string
	Sound uint8
}

// Echo sends Raw back unchanged (keep-alive reply).
type Echo struct {
	Raw []byte
}

// Button is an IS_BTN widget.
type Button struct {
	ReqI   uint8
	UCID   uint8
	ID     uint8 // ClickID, 0 to 239
	Inst   uint8
	Style  uint8
	TypeIn uint8
	Left   uint8
	Top    uint8
	Width  uint8
	Height uint8
	Text   string
}

// ClearButtons is an IS_BFN BFN_CLEAR for every button this client created.
type ClearButtons struct{}

func (Init) isCommand()         {}
func (Message) isCommand()      {}
func (Echo) isCommand()         {}
func (Button) isCommand()       {}
func (ClearButtons) isCommand() {}

// MaxButtonID is the highest ClickID the simulator accepts.
const MaxButtonID = 239
