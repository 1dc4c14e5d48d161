package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/tablestakes/internal/game"
)

// ServerConfig represents the complete server configuration. Both blocks
// are optional in the file; missing values fall back to defaults.
type ServerConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address      string `hcl:"address,optional"`
	Port         int    `hcl:"port,optional"`
	LogLevel     string `hcl:"log_level,optional"`
	LogFile      string `hcl:"log_file,optional"`
	DatabasePath string `hcl:"database_path,optional"`
}

// GameSettings contains the tournament rules applied to every room
type GameSettings struct {
	SmallBlind       int `hcl:"small_blind,optional"`
	BigBlind         int `hcl:"big_blind,optional"`
	StartingChips    int `hcl:"starting_chips,optional"`
	HandLimit        int `hcl:"hand_limit,optional"`
	TurnTimerSeconds int `hcl:"turn_timer_seconds,optional"`
	MinPlayers       int `hcl:"min_players,optional"`
	MaxPlayers       int `hcl:"max_players,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	defaults := game.DefaultConfig()
	return &ServerConfig{
		Server: &ServerSettings{
			Address:      "localhost",
			Port:         8080,
			LogLevel:     "info",
			DatabasePath: "tablestakes.db",
		},
		Game: &GameSettings{
			SmallBlind:       defaults.SmallBlind,
			BigBlind:         defaults.BigBlind,
			StartingChips:    defaults.StartingChips,
			HandLimit:        defaults.HandLimit,
			TurnTimerSeconds: int(defaults.TurnTimer / time.Second),
			MinPlayers:       defaults.MinPlayers,
			MaxPlayers:       defaults.MaxPlayers,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *ServerConfig) {
	defaults := DefaultServerConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Game == nil {
		config.Game = defaults.Game
	}
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.SmallBlind == 0 {
		config.Game.SmallBlind = defaults.Game.SmallBlind
	}
	if config.Game.BigBlind == 0 {
		config.Game.BigBlind = defaults.Game.BigBlind
	}
	if config.Game.StartingChips == 0 {
		config.Game.StartingChips = defaults.Game.StartingChips
	}
	if config.Game.HandLimit == 0 {
		config.Game.HandLimit = defaults.Game.HandLimit
	}
	if config.Game.TurnTimerSeconds == 0 {
		config.Game.TurnTimerSeconds = defaults.Game.TurnTimerSeconds
	}
	if config.Game.MinPlayers == 0 {
		config.Game.MinPlayers = defaults.Game.MinPlayers
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Game.BigBlind <= c.Game.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if c.Game.StartingChips < c.Game.BigBlind {
		return fmt.Errorf("starting chips must cover the big blind")
	}
	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2")
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("max players must be at least min players")
	}
	if c.Game.TurnTimerSeconds <= 0 {
		return fmt.Errorf("turn timer must be positive")
	}
	return nil
}

// GameConfig converts the settings into the rules consumed by the game
// engine
func (c *ServerConfig) GameConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.SmallBlind = c.Game.SmallBlind
	cfg.BigBlind = c.Game.BigBlind
	cfg.StartingChips = c.Game.StartingChips
	cfg.HandLimit = c.Game.HandLimit
	cfg.TurnTimer = time.Duration(c.Game.TurnTimerSeconds) * time.Second
	cfg.MinPlayers = c.Game.MinPlayers
	cfg.MaxPlayers = c.Game.MaxPlayers
	return cfg
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
