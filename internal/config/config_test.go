package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Port != "5175" || c.GridSize != 3 || c.MovesStart != 12 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.CookieName != "forge_token" || c.DBPath != "./data/forge.db" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ServerClock() || c.AutoSelect || c.FitPatterns {
		t.Fatalf("optional features should default off: %+v", c)
	}
	if c.JWTSecret != devJWTSecret {
		t.Fatalf("expected dev secret outside production, got %q", c.JWTSecret)
	}
	if c.ShutdownTimeout != 10*time.Second || c.JWTTTL() != 14*24*time.Hour || c.RoomTTL != 30*time.Minute {
		t.Fatalf("durations: %v %v %v", c.ShutdownTimeout, c.JWTTTL(), c.RoomTTL)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("FORGE_GRID_SIZE", "4")
	t.Setenv("FORGE_TICK_INTERVAL", "250ms")
	t.Setenv("FORGE_AUTO_SELECT", "true")
	t.Setenv("LOG_FORMAT", "json")

	c, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.GridSize != 4 || c.TickInterval != 250*time.Millisecond || !c.AutoSelect {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if !c.ServerClock() {
		t.Fatalf("tick interval should enable the server clock")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, key, val, want string
	}{
		{"bad int", "FORGE_GRID_SIZE", "abc", "parse env:"},
		{"zero grid", "FORGE_GRID_SIZE", "0", "FORGE_GRID_SIZE"},
		{"negative moves", "FORGE_MOVES_START", "-1", "FORGE_MOVES_START"},
		{"negative tick", "FORGE_TICK_INTERVAL", "-1s", "FORGE_TICK_INTERVAL"},
		{"zero room ttl", "FORGE_ROOM_TTL", "0s", "FORGE_ROOM_TTL"},
		{"log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"prod without secret", "NODE_ENV", "production", "JWT_SECRET"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestProductionWithSecret(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	c, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Production() || c.JWTSecret != "s3cret" {
		t.Fatalf("unexpected config: %+v", c)
	}
}
