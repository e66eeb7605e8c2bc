package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixelframe/internal/daemon"
	"pixelframe/internal/player"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fakeDaemon(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(daemon.Status{
			Running:     true,
			PixelFormat: "rgb565",
			PanelWidth:  720,
			PanelHeight: 720,
			Playback: player.Status{
				Asset:         "fish.gif",
				PlaylistCount: 3,
				Format:        "gif",
			},
		})
	})
	mux.HandleFunc("/api/action/next", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"action": "next", "accepted": true})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestStatusCommandJSON(t *testing.T) {
	addr := fakeDaemon(t)
	out, err := execute(t, "status", "--json", "--address", addr, "--token", "x")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"fish.gif"`) {
		t.Fatalf("output missing asset: %s", out)
	}
	if !strings.Contains(out, `"running": true`) {
		t.Fatalf("output missing running flag: %s", out)
	}
}

func TestNextCommand(t *testing.T) {
	addr := fakeDaemon(t)
	out, err := execute(t, "next", "--address", addr, "--token", "x")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestActionAgainstDeadDaemon(t *testing.T) {
	_, err := execute(t, "pause", "--address", "127.0.0.1:1", "--token", "x")
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	out, err := execute(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("output missing path: %s", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "[display]") {
		t.Fatal("sample config missing display section")
	}

	if _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}
