package server

import (
	"encoding/json"
	"strings"

	"github.com/pthm-cable/gridlife/game"
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
)

// Command types accepted from clients.
const (
	CmdStart  = "start"  // new world, optional config overrides
	CmdStep   = "step"   // one tick
	CmdAuto   = "auto"   // begin auto-stepping
	CmdPause  = "pause"  // stop auto-stepping
	CmdSpeed  = "speed"  // set ticks per second
	CmdReset  = "reset"  // discard the world
	CmdSelect = "select" // agent detail by id
)

var commandNames = []string{CmdStart, CmdStep, CmdAuto, CmdPause, CmdSpeed, CmdReset, CmdSelect}

// Command is a message from a client.
type Command struct {
	Type string `json:"type"`

	// Config holds overrides for start, keyed like the YAML config file.
	Config json.RawMessage `json:"config,omitempty"`
	TPS    float64         `json:"tps,omitempty"`
	ID     uint32          `json:"id,omitempty"`
}

// Hello is sent once to every new client.
type Hello struct {
	Type     string   `json:"type"`
	Speed    float64  `json:"speed"`
	Commands []string `json:"commands"`
}

// Reply answers one command, to the client that sent it.
type Reply struct {
	Type    string            `json:"type"` // ack, error or detail
	Command string            `json:"command"`
	Error   string            `json:"error,omitempty"`
	Speed   float64           `json:"speed,omitempty"`
	Agent   *game.AgentDetail `json:"agent,omitempty"`
}

// Frame is the world state broadcast to every client.
type Frame struct {
	Type    string            `json:"type"`
	RunID   string            `json:"runId,omitempty"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Running bool              `json:"running"`
	Speed   float64           `json:"speed"`
	Stats   game.Stats        `json:"stats"`
	Grid    string            `json:"grid"` // row-major: '.' empty, 'f' food, 'p' poison
	Agents  []game.AgentView  `json:"agents"`
	Events  []telemetry.Event `json:"events,omitempty"`
}

func ack(cmd string) Reply {
	return Reply{Type: "ack", Command: cmd}
}

func replyError(cmd, msg string) Reply {
	return Reply{Type: "error", Command: cmd, Error: msg}
}

// snapshot builds a frame from sim. The caller must hold the simulation.
func snapshot(sim *game.Simulation, running bool, speed float64) *Frame {
	f := &Frame{
		Type:    "frame",
		RunID:   sim.RunID(),
		Width:   sim.Width(),
		Height:  sim.Height(),
		Running: running,
		Speed:   speed,
		Stats:   sim.Stats(),
		Grid:    gridString(sim.Cells()),
		Agents:  sim.Agents(),
	}
	if w := sim.World(); w != nil {
		f.Events = append([]telemetry.Event(nil), w.Events()...)
	}
	return f
}

func gridString(cells []systems.Resource) string {
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, r := range cells {
		switch r {
		case systems.Food:
			sb.WriteByte('f')
		case systems.Poison:
			sb.WriteByte('p')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
