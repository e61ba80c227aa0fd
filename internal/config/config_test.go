package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFramePath(t *testing.T) {
	p := Player{BasePath: "/seq/frame_"}

	tests := []struct {
		index int
		want  string
	}{
		{0, "/seq/frame_000.png"},
		{7, "/seq/frame_007.png"},
		{81, "/seq/frame_081.png"},
		{123, "/seq/frame_123.png"},
	}

	for _, tt := range tests {
		if got := p.FramePath(tt.index); got != tt.want {
			t.Errorf("FramePath(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestPlayerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Player)
	}{
		{"zero frames", func(p *Player) { p.FrameCount = 0 }},
		{"zero tick rate", func(p *Player) { p.TickRate = 0 }},
		{"smoothing too big", func(p *Player) { p.Smoothing = 1.5 }},
		{"negative speed", func(p *Player) { p.MaxSpeed = -1 }},
		{"min step above cap", func(p *Player) { p.MinStep = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default().Player
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyscroll.yaml")
	data := []byte("player:\n  frame_count: 10\n  smoothing: 0.12\ntheme:\n  measurer: lab\nwidth: 640\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Player.FrameCount != 10 {
		t.Errorf("frame_count = %d, want 10", cfg.Player.FrameCount)
	}
	if cfg.Player.Smoothing != 0.12 {
		t.Errorf("smoothing = %v, want 0.12", cfg.Player.Smoothing)
	}
	if cfg.Theme.Measurer != "lab" {
		t.Errorf("measurer = %q, want lab", cfg.Theme.Measurer)
	}
	if cfg.Theme.Cutoff != 0.5 {
		t.Errorf("cutoff = %v, want default 0.5", cfg.Theme.Cutoff)
	}
	if cfg.Width != 640 {
		t.Errorf("width = %d, want 640", cfg.Width)
	}
	// untouched fields keep defaults
	if cfg.Player.MaxSpeed != DefaultMaxSpeed {
		t.Errorf("max_speed = %v, want %v", cfg.Player.MaxSpeed, DefaultMaxSpeed)
	}
	if cfg.Height != 720 {
		t.Errorf("height = %d, want 720", cfg.Height)
	}
}

func TestScriptDuration(t *testing.T) {
	cfg := Default()
	if got := cfg.ScriptDuration(); got != DefaultDuration {
		t.Errorf("ScriptDuration() = %v, want %v", got, DefaultDuration)
	}
	cfg.TotalDuration = 3.5
	if got := cfg.ScriptDuration(); got != 3.5 {
		t.Errorf("ScriptDuration() = %v, want 3.5", got)
	}
}
