package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"volraycast/pkg/config"
	"volraycast/pkg/engine"
	"volraycast/pkg/volume"
)

func startServer(t *testing.T) (*websocket.Conn, *Server) {
	t.Helper()
	g, err := volume.Sphere(16, 6)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Render.Width, cfg.Render.Height = 48, 32
	cfg.Render.Threads = 2

	srv := New("")
	eng, err := engine.New(g, cfg, srv)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	srv.Attach(eng)

	ts := httptest.NewServer(srv.Handler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		eng.Close()
		ts.Close()
	})
	return conn, srv
}

// readUntil reads messages until match accepts one or the deadline passes
func readUntil(t *testing.T, conn *websocket.Conn, match func(kind int, data []byte) bool) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if match(kind, data) {
			return
		}
	}
}

func TestRotateStreamsFrames(t *testing.T) {
	conn, _ := startServer(t)
	if err := conn.WriteJSON(Event{Type: "rotate", X: 30, Y: 16, X0: 24, Y0: 16}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var final bool
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind == websocket.TextMessage {
			var lvl LevelMessage
			if json.Unmarshal(data, &lvl) == nil && lvl.Type == "level" {
				final = lvl.Final
			}
			return false
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Expected a PNG frame: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
			t.Errorf("Expected a 48x32 frame, got %v", b)
		}
		return final
	})
}

func TestEventErrors(t *testing.T) {
	conn, _ := startServer(t)
	for _, ev := range []Event{
		{Type: "teleport"},
		{Type: "mode", Name: "hologram"},
		{Type: "light"},
	} {
		if err := conn.WriteJSON(ev); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		readUntil(t, conn, func(kind int, data []byte) bool {
			var msg ErrorMessage
			return kind == websocket.TextMessage && json.Unmarshal(data, &msg) == nil && msg.Type == "error" && msg.Message != ""
		})
	}
}

func TestStatusEvent(t *testing.T) {
	conn, _ := startServer(t)
	if err := conn.WriteJSON(Event{Type: "palette", Name: "fire"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := conn.WriteJSON(Event{Type: "status"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	readUntil(t, conn, func(kind int, data []byte) bool {
		var reply StatusReply
		if kind != websocket.TextMessage || json.Unmarshal(data, &reply) != nil || reply.Type != "params" {
			return false
		}
		if reply.Palette != "fire" {
			t.Errorf("Expected palette fire, got %q", reply.Palette)
		}
		return true
	})
}

func TestPaintRegionReply(t *testing.T) {
	conn, _ := startServer(t)
	conn.WriteJSON(Event{Type: "tolerances", Lum: 255, Grad: 127})
	if err := conn.WriteJSON(Event{Type: "paintRegion", X: 8, Y: 8, Z: 8, Color: 2}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	readUntil(t, conn, func(kind int, data []byte) bool {
		var reply RegionMessage
		if kind != websocket.TextMessage || json.Unmarshal(data, &reply) != nil || reply.Type != "region" {
			return false
		}
		if reply.Size != 16*16*16 {
			t.Errorf("Expected the whole volume, got %d voxels", reply.Size)
		}
		return true
	})
}

func TestBackgroundEvent(t *testing.T) {
	conn, _ := startServer(t)
	if err := conn.WriteJSON(Event{Type: "background", RGB: [3]int{255, 0, 300}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind != websocket.BinaryMessage {
			return false
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("png.Decode: %v", err)
		}
		r, g, b, _ := img.At(0, 0).RGBA()
		return r>>8 == 255 && g>>8 == 0 && b>>8 == 255
	})
}

func TestTransferEvents(t *testing.T) {
	conn, _ := startServer(t)
	for _, ev := range []Event{
		{Type: "offset", Value: 20},
		{Type: "scaleAlpha"},
		{Type: "autoTransfer"},
		{Type: "clearAlpha"},
		{Type: "tolerances", Lum: 255, Grad: 127},
		{Type: "paintRegion", X: 8, Y: 8, Z: 8, Color: 4},
		{Type: "colorByProximity"},
	} {
		if err := conn.WriteJSON(ev); err != nil {
			t.Fatalf("WriteJSON %s: %v", ev.Type, err)
		}
	}
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind != websocket.TextMessage {
			return false
		}
		var msg ErrorMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == "error" {
			t.Fatalf("Unexpected error reply: %s", msg.Message)
		}
		var reply ProximityMessage
		if json.Unmarshal(data, &reply) != nil || reply.Type != "proximity" {
			return false
		}
		if reply.Count != 16*16*16 {
			t.Errorf("Expected every painted voxel recoloured, got %d", reply.Count)
		}
		return true
	})
}
