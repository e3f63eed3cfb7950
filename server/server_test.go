package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridlife/game"
)

// message is the union of every server message used by the tests.
type message struct {
	Type    string            `json:"type"`
	Command string            `json:"command"`
	Error   string            `json:"error"`
	Speed   float64           `json:"speed"`
	Agent   *game.AgentDetail `json:"agent"`

	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Running bool             `json:"running"`
	Stats   game.Stats       `json:"stats"`
	Grid    string           `json:"grid"`
	Agents  []game.AgentView `json:"agents"`
}

func newTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	sim, err := game.NewSimulation(game.Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	srv := New(game.NewRunner(sim, 50), nil)
	ts := httptest.NewServer(srv.Handler())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		ts.Close()
		sim.Close()
	})

	hello := readUntil(t, conn, func(m message) bool { return m.Type == "hello" })
	if hello.Speed != 50 {
		t.Errorf("hello speed = %v, want 50", hello.Speed)
	}
	return srv, conn
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write %s: %v", cmd.Type, err)
	}
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

// readBoth reads until it has seen the reply to cmd and a frame accepted by
// match. Frames are broadcast separately, so they may overtake the reply.
func readBoth(t *testing.T, conn *websocket.Conn, cmd string, match func(message) bool) (reply, frame message) {
	t.Helper()
	isReply := replyTo(cmd)
	var gotReply, gotFrame bool
	for !gotReply || !gotFrame {
		m := readUntil(t, conn, func(m message) bool {
			return (!gotReply && isReply(m)) || (!gotFrame && m.Type == "frame" && match(m))
		})
		if m.Type == "frame" {
			frame, gotFrame = m, true
		} else {
			reply, gotReply = m, true
		}
	}
	return reply, frame
}

func replyTo(cmd string) func(message) bool {
	return func(m message) bool {
		return m.Command == cmd && (m.Type == "ack" || m.Type == "error" || m.Type == "detail")
	}
}

func TestServerStartWithOverrides(t *testing.T) {
	_, conn := newTestServer(t)

	overrides := json.RawMessage(`{"world": {"width": 12, "height": 8}, "population": {"initial": 6}}`)
	send(t, conn, Command{Type: CmdStart, Config: overrides})

	r, f := readBoth(t, conn, CmdStart, func(m message) bool { return m.Width == 12 })
	if r.Type != "ack" {
		t.Fatalf("start reply = %+v", r)
	}
	if f.Height != 8 || f.Stats.Population != 6 || len(f.Agents) != 6 {
		t.Errorf("frame = %dx%d with %d agents", f.Width, f.Height, len(f.Agents))
	}
	if len(f.Grid) != 12*8 {
		t.Errorf("grid length = %d, want %d", len(f.Grid), 12*8)
	}
}

func TestServerStartRejectsBadConfig(t *testing.T) {
	_, conn := newTestServer(t)

	send(t, conn, Command{Type: CmdStart, Config: json.RawMessage(`{"world": [1, 2]}`)})
	r := readUntil(t, conn, replyTo(CmdStart))
	if r.Type != "error" || !strings.Contains(r.Error, "invalid config") {
		t.Errorf("reply = %+v", r)
	}
}

func TestServerStepAndSelect(t *testing.T) {
	_, conn := newTestServer(t)

	send(t, conn, Command{Type: CmdStart})
	readUntil(t, conn, replyTo(CmdStart))

	send(t, conn, Command{Type: CmdStep})
	r, f := readBoth(t, conn, CmdStep, func(m message) bool { return m.Stats.Tick == 1 })
	if r.Type != "ack" {
		t.Fatalf("step reply = %+v", r)
	}
	if len(f.Agents) == 0 {
		t.Fatal("expected agents after one step")
	}

	id := f.Agents[0].ID
	send(t, conn, Command{Type: CmdSelect, ID: id})
	r = readUntil(t, conn, replyTo(CmdSelect))
	if r.Type != "detail" || r.Agent == nil || r.Agent.ID != id {
		t.Fatalf("select reply = %+v", r)
	}
	if r.Agent.Lifetime == nil {
		t.Error("expected lifetime stats")
	}

	send(t, conn, Command{Type: CmdSelect, ID: 1 << 30})
	if r := readUntil(t, conn, replyTo(CmdSelect)); r.Type != "error" {
		t.Errorf("select of unknown id = %+v", r)
	}
}

func TestServerAutoPause(t *testing.T) {
	srv, conn := newTestServer(t)

	send(t, conn, Command{Type: CmdAuto})
	if r := readUntil(t, conn, replyTo(CmdAuto)); r.Type != "error" {
		t.Errorf("auto without a world = %+v", r)
	}

	send(t, conn, Command{Type: CmdStart})
	readUntil(t, conn, replyTo(CmdStart))

	send(t, conn, Command{Type: CmdAuto})
	if r := readUntil(t, conn, replyTo(CmdAuto)); r.Type != "ack" {
		t.Fatalf("auto reply = %+v", r)
	}
	readUntil(t, conn, func(m message) bool { return m.Type == "frame" && m.Stats.Tick >= 3 })

	send(t, conn, Command{Type: CmdStep})
	if r := readUntil(t, conn, replyTo(CmdStep)); r.Type != "error" {
		t.Errorf("step during auto-run = %+v", r)
	}

	send(t, conn, Command{Type: CmdPause})
	readUntil(t, conn, replyTo(CmdPause))
	if srv.runner.Running() {
		t.Error("runner still running after pause")
	}

	send(t, conn, Command{Type: CmdStep})
	if r := readUntil(t, conn, replyTo(CmdStep)); r.Type != "ack" {
		t.Errorf("step after pause = %+v", r)
	}
}

func TestServerSpeedAndReset(t *testing.T) {
	_, conn := newTestServer(t)

	send(t, conn, Command{Type: CmdSpeed, TPS: 0})
	if r := readUntil(t, conn, replyTo(CmdSpeed)); r.Speed != 0.1 {
		t.Errorf("speed reply = %+v, want clamp to 0.1", r)
	}
	send(t, conn, Command{Type: CmdSpeed, TPS: 20})
	if r := readUntil(t, conn, replyTo(CmdSpeed)); r.Speed != 20 {
		t.Errorf("speed reply = %+v", r)
	}

	send(t, conn, Command{Type: CmdStart})
	readUntil(t, conn, replyTo(CmdStart))
	send(t, conn, Command{Type: CmdReset})
	_, f := readBoth(t, conn, CmdReset, func(m message) bool { return m.Width == 0 })
	if !f.Stats.Extinct || len(f.Agents) != 0 || f.Grid != "" {
		t.Errorf("frame after reset = %+v", f)
	}
}

func TestServerUnknownCommand(t *testing.T) {
	_, conn := newTestServer(t)

	send(t, conn, Command{Type: "fly"})
	r := readUntil(t, conn, replyTo("fly"))
	if r.Type != "error" || !strings.Contains(r.Error, "unknown command") {
		t.Errorf("reply = %+v", r)
	}
}

func TestServerTracksClients(t *testing.T) {
	srv, conn := newTestServer(t)
	if srv.ClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", srv.ClientCount())
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.ClientCount() != 0 {
		t.Error("client not removed after disconnect")
	}
}

func TestServerGreetFailsOnClosedConn(t *testing.T) {
	sim, err := game.NewSimulation(game.Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	srv := New(game.NewRunner(sim, 50), nil)

	result := make(chan error, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			result <- err
			return
		}
		conn.Close()
		result <- srv.greet(&Client{conn: conn})
	}))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		sim.Close()
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case err := <-result:
		if err == nil {
			t.Error("greet on a closed connection should fail")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("greet did not return")
	}
}
