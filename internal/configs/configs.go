/*
Package configs loads the server configuration from the environment.

Values come from process environment variables, optionally seeded from a .env file in the
working directory. Floor geometry and the avatar catalog are static configuration: they are
read once at startup and never change while the process runs.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"dancefloor/internal/app/spawn"
)

const (
	// DefaultFloorWidth and DefaultFloorHeight bound every stored position.
	DefaultFloorWidth  = 1217
	DefaultFloorHeight = 768

	// DefaultSpawnRegion is the dance floor, inset from the room edges.
	DefaultSpawnRegion = "340,490;885,490;935,770;280,770"

	// DefaultMaxDisplayName is the longest display name accepted on join, in bytes.
	DefaultMaxDisplayName = 64
)

// DefaultAvatars is the built-in appearance catalog.
var DefaultAvatars = []string{
	"https://emojis.slackmojis.com/emojis/images/1643516033/20573/kirby_jam.gif?1643516033",
	"https://emojis.slackmojis.com/emojis/images/1643514525/5197/party_blob.gif?1643514525",
	"https://emojis.slackmojis.com/emojis/images/1643514596/5999/meow_party.gif?1643514596",
	"https://emojis.slackmojis.com/emojis/images/1643514670/6723/hyperfastparrot.gif?1643514670",
	"https://emojis.slackmojis.com/emojis/images/1643515386/14043/dino_dance.gif?1643515386",
	"https://emojis.slackmojis.com/emojis/images/1677311855/64344/party-on.gif?1677311855",
	"https://emojis.slackmojis.com/emojis/images/1643514742/7500/partyparrot.gif?1643514742",
	"https://emojis.slackmojis.com/emojis/images/1643514812/8270/blob-dance.gif?1643514812",
	"https://emojis.slackmojis.com/emojis/images/1665051119/61583/vibe-rabbit.gif?1665051119",
	"https://emojis.slackmojis.com/emojis/images/1643514978/10036/beer_parrot.gif?1643514978",
	"https://emojis.slackmojis.com/emojis/images/1643517304/33412/jammy.gif?1643517304",
	"https://emojis.slackmojis.com/emojis/images/1646632043/55382/jammy.gif?1646632043",
	"https://emojis.slackmojis.com/emojis/images/1646625477/55333/jammy.gif?1646625477",
	"https://emojis.slackmojis.com/emojis/images/1643517304/33419/jamkip.gif?1643517304",
	"https://emojis.slackmojis.com/emojis/images/1643514980/10066/exceptionally_fast_parrot.gif?1643514980",
	"https://emojis.slackmojis.com/emojis/images/1643514139/978/conga_parrot.gif?1643514139",
	"https://emojis.slackmojis.com/emojis/images/1643514853/8661/fast_meow_party.gif?1643514853",
	"https://emojis.slackmojis.com/emojis/images/1643515120/11400/among-us-party.gif?1643515120",
	"https://emojis.slackmojis.com/emojis/images/1694204578/68640/amongustwerkhalloween.gif?1694204578",
}

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	StaticDir   string

	// Security Settings
	AllowedOrigins []string

	// Floor Settings
	FloorWidth     int
	FloorHeight    int
	SpawnRegion    spawn.Quad
	Avatars        []string
	MaxDisplayName int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration from the environment, after loading .env if one exists.
// Unset variables fall back to defaults; malformed values are reported as errors.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from process environment variables only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", "development")

	port, err := getInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (%d-%d)", port, 1024, 65535)
	}
	cfg.Port = port

	cfg.StaticDir = getEnv("STATIC_DIR", "build")

	// --- Security Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"), ",")

	// --- Floor Settings ---
	if cfg.FloorWidth, err = getInt("FLOOR_WIDTH", DefaultFloorWidth); err != nil {
		return nil, err
	}
	if cfg.FloorHeight, err = getInt("FLOOR_HEIGHT", DefaultFloorHeight); err != nil {
		return nil, err
	}
	if cfg.FloorWidth <= 0 || cfg.FloorHeight <= 0 {
		return nil, fmt.Errorf("floor dimensions must be positive, got %dx%d", cfg.FloorWidth, cfg.FloorHeight)
	}

	region, err := ParseQuad(getEnv("SPAWN_REGION", DefaultSpawnRegion))
	if err != nil {
		return nil, fmt.Errorf("invalid SPAWN_REGION environment variable: %w", err)
	}
	if _, err := spawn.NewSampler(region); err != nil {
		return nil, fmt.Errorf("invalid SPAWN_REGION environment variable: %w", err)
	}
	cfg.SpawnRegion = region

	cfg.Avatars = DefaultAvatars
	if raw, ok := os.LookupEnv("AVATAR_CATALOG"); ok {
		cfg.Avatars = splitList(raw, ",")
		if len(cfg.Avatars) == 0 {
			return nil, fmt.Errorf("AVATAR_CATALOG must list at least one avatar")
		}
	}

	if cfg.MaxDisplayName, err = getInt("MAX_DISPLAY_NAME", DefaultMaxDisplayName); err != nil {
		return nil, err
	}
	if cfg.MaxDisplayName <= 0 {
		return nil, fmt.Errorf("MAX_DISPLAY_NAME must be positive, got %d", cfg.MaxDisplayName)
	}

	return cfg, nil
}

// ParseQuad parses four "x,y" corners separated by semicolons, e.g. "0,0;100,0;100,100;0,100".
func ParseQuad(s string) (spawn.Quad, error) {
	var q spawn.Quad

	corners := splitList(s, ";")
	if len(corners) != len(q) {
		return q, fmt.Errorf("expected %d corners, got %d", len(q), len(corners))
	}

	for i, corner := range corners {
		parts := strings.Split(corner, ",")
		if len(parts) != 2 {
			return q, fmt.Errorf("corner %d %q is not an x,y pair", i, corner)
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return q, fmt.Errorf("corner %d x: %w", i, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return q, fmt.Errorf("corner %d y: %w", i, err)
		}

		q[i] = spawn.Point{X: x, Y: y}
	}

	return q, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

// splitList splits s on sep, trimming spaces and dropping empty items.
func splitList(s, sep string) []string {
	items := []string{}
	for _, item := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
