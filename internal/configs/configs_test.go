package configs

import (
	"os"
	"strings"
	"testing"

	"dancefloor/internal/app/spawn"
)

// clearEnv blanks every variable FromEnv reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT", "PORT", "STATIC_DIR", "ALLOWED_ORIGINS",
		"FLOOR_WIDTH", "FLOOR_HEIGHT", "SPAWN_REGION", "MAX_DISPLAY_NAME",
	} {
		t.Setenv(key, "")
	}

	// An empty AVATAR_CATALOG is an error, so it must be truly unset.
	t.Setenv("AVATAR_CATALOG", "")
	os.Unsetenv("AVATAR_CATALOG")
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if !cfg.IsDevelopment() {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.FloorWidth != 1217 || cfg.FloorHeight != 768 {
		t.Errorf("floor = %dx%d, want 1217x768", cfg.FloorWidth, cfg.FloorHeight)
	}
	if cfg.StaticDir != "build" {
		t.Errorf("StaticDir = %q", cfg.StaticDir)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v, want empty", cfg.AllowedOrigins)
	}
	if len(cfg.Avatars) != len(DefaultAvatars) {
		t.Errorf("len(Avatars) = %d, want %d", len(cfg.Avatars), len(DefaultAvatars))
	}

	want := spawn.Quad{{X: 340, Y: 490}, {X: 885, Y: 490}, {X: 935, Y: 770}, {X: 280, Y: 770}}
	if cfg.SpawnRegion != want {
		t.Errorf("SpawnRegion = %v, want %v", cfg.SpawnRegion, want)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("FLOOR_WIDTH", "200")
	t.Setenv("FLOOR_HEIGHT", "100")
	t.Setenv("SPAWN_REGION", "0,0; 100,0; 100,100; 0,100")
	t.Setenv("AVATAR_CATALOG", "a.gif,b.gif")
	t.Setenv("MAX_DISPLAY_NAME", "12")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.IsDevelopment() || cfg.Port != 8081 {
		t.Errorf("environment/port = %q/%d", cfg.Environment, cfg.Port)
	}
	if strings.Join(cfg.AllowedOrigins, "|") != "https://a.example|https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.FloorWidth != 200 || cfg.FloorHeight != 100 {
		t.Errorf("floor = %dx%d", cfg.FloorWidth, cfg.FloorHeight)
	}
	if cfg.SpawnRegion[2] != (spawn.Point{X: 100, Y: 100}) {
		t.Errorf("SpawnRegion = %v", cfg.SpawnRegion)
	}
	if strings.Join(cfg.Avatars, "|") != "a.gif|b.gif" {
		t.Errorf("Avatars = %v", cfg.Avatars)
	}
	if cfg.MaxDisplayName != 12 {
		t.Errorf("MaxDisplayName = %d", cfg.MaxDisplayName)
	}
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"PORT", "80"},
		{"FLOOR_WIDTH", "0"},
		{"FLOOR_HEIGHT", "-5"},
		{"SPAWN_REGION", "0,0;100,0;100,100"},
		{"SPAWN_REGION", "0,0;100,100;100,0;0,100"},
		{"SPAWN_REGION", "0,0;x,0;100,100;0,100"},
		{"AVATAR_CATALOG", " , "},
		{"MAX_DISPLAY_NAME", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestParseQuad(t *testing.T) {
	q, err := ParseQuad("1.5,2;3,4;5,6;7,8")
	if err != nil {
		t.Fatalf("ParseQuad: %v", err)
	}

	want := spawn.Quad{{X: 1.5, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}}
	if q != want {
		t.Fatalf("ParseQuad() = %v, want %v", q, want)
	}

	if _, err := ParseQuad("1,2,3;3,4;5,6;7,8"); err == nil {
		t.Fatalf("expected error for malformed corner")
	}
}
