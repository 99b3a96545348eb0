package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/OCAP2/roversim/internal/render"
	"github.com/OCAP2/roversim/pkg/core"
)

// FileName is the name of the configuration file inside the config directory.
const FileName = "roversim.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings of the sqlite recorder. The database lives in
// memory and is dumped to Path every DumpInterval and when the run ends.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds the streaming recorder settings.
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// InfluxConfig holds the influx recorder settings. Connection details live under influx.*.
type InfluxConfig struct {
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the recording backend.
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
	Influx    InfluxConfig    `json:"influx" mapstructure:"influx"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SimulationConfig holds the settings of one simulation run.
type SimulationConfig struct {
	ControlInterval time.Duration `json:"controlInterval" mapstructure:"controlInterval"`
	FrameRate       float64       `json:"frameRate" mapstructure:"frameRate"`
	// Duration of the run, zero runs until interrupted.
	Duration     time.Duration `json:"duration" mapstructure:"duration"`
	Vehicle      string        `json:"vehicle" mapstructure:"vehicle"`
	Authenticity string        `json:"authenticity" mapstructure:"authenticity"`
	// Seed of the noise source, zero picks a random seed.
	Seed       int64  `json:"seed" mapstructure:"seed"`
	Controller string `json:"controller" mapstructure:"controller"`
}

// MonitorConfig controls the periodic status snapshot.
type MonitorConfig struct {
	// StatusFile receives the latest status as JSON. Empty disables the monitor.
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
}

// RenderConfig controls where rendered frames go.
// An empty OutputDir keeps frames in memory only.
type RenderConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
	Every     int    `json:"every" mapstructure:"every"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "roversim")

	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "roversim")
	viper.SetDefault("influx.bucket", "roversim")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "roversim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("simulation.controlInterval", "20ms")
	viper.SetDefault("simulation.frameRate", 60)
	viper.SetDefault("simulation.duration", "0s")
	viper.SetDefault("simulation.vehicle", string(core.VehicleRover))
	viper.SetDefault("simulation.authenticity", "ideal")
	viper.SetDefault("simulation.seed", 0)
	viper.SetDefault("simulation.controller", "waypoint")

	viper.SetDefault("scenario.origin.latitude", 52.477050353132384)
	viper.SetDefault("scenario.origin.longitude", 13.395281227289209)
	viper.SetDefault("scenario.locationsOfInterest", []map[string]any{
		{"latitude": 52.47880703639255, "longitude": 13.395281227289209, "label": "A"},
	})
	viper.SetDefault("scenario.obstacles", []map[string]any{})
	viper.SetDefault("scenario.targets", []map[string]any{})
	viper.SetDefault("scenario.landmines", []map[string]any{})

	rendering := render.DefaultOptions()
	viper.SetDefault("rendering.width", rendering.Width)
	viper.SetDefault("rendering.height", rendering.Height)
	viper.SetDefault("rendering.showGrid", rendering.ShowGrid)
	viper.SetDefault("rendering.showTrace", rendering.ShowTrace)
	viper.SetDefault("rendering.showCompass", rendering.ShowCompass)
	viper.SetDefault("rendering.colors.grid", rendering.Colors.Grid)
	viper.SetDefault("rendering.colors.trace", rendering.Colors.Trace)
	viper.SetDefault("rendering.colors.rover", rendering.Colors.Rover)
	viper.SetDefault("rendering.colors.marker", rendering.Colors.Marker)
	viper.SetDefault("rendering.colors.compass", rendering.Colors.Compass)

	viper.SetDefault("render.outputDir", "")
	viper.SetDefault("render.every", 30)

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./recordings/roversim.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.influx.backupPath", "./recordings/influx_backup.lp.gz")

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the recording backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		Influx: InfluxConfig{
			BackupPath: viper.GetString("storage.influx.backupPath"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetSimulationConfig returns the simulation run settings.
func GetSimulationConfig() SimulationConfig {
	return SimulationConfig{
		ControlInterval: viper.GetDuration("simulation.controlInterval"),
		FrameRate:       viper.GetFloat64("simulation.frameRate"),
		Duration:        viper.GetDuration("simulation.duration"),
		Vehicle:         viper.GetString("simulation.vehicle"),
		Authenticity:    viper.GetString("simulation.authenticity"),
		Seed:            viper.GetInt64("simulation.seed"),
		Controller:      viper.GetString("simulation.controller"),
	}
}

// GetRenderConfig returns the frame output settings.
func GetRenderConfig() RenderConfig {
	return RenderConfig{
		OutputDir: viper.GetString("render.outputDir"),
		Every:     viper.GetInt("render.every"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}

// GetRenderingOptions returns what the renderer draws.
func GetRenderingOptions() render.Options {
	return render.Options{
		Width:       viper.GetInt("rendering.width"),
		Height:      viper.GetInt("rendering.height"),
		ShowGrid:    viper.GetBool("rendering.showGrid"),
		ShowTrace:   viper.GetBool("rendering.showTrace"),
		ShowCompass: viper.GetBool("rendering.showCompass"),
		Colors: render.Colors{
			Grid:    viper.GetString("rendering.colors.grid"),
			Trace:   viper.GetString("rendering.colors.trace"),
			Rover:   viper.GetString("rendering.colors.rover"),
			Marker:  viper.GetString("rendering.colors.marker"),
			Compass: viper.GetString("rendering.colors.compass"),
		},
	}
}

// GetScenario decodes the static world. Locations are validated.
func GetScenario() (core.Scenario, error) {
	var s core.Scenario

	for key, dst := range map[string]any{
		"scenario.origin":              &s.Origin,
		"scenario.locationsOfInterest": &s.LocationsOfInterest,
		"scenario.obstacles":           &s.Obstacles,
		"scenario.targets":             &s.Targets,
		"scenario.landmines":           &s.Landmines,
	} {
		if err := viper.UnmarshalKey(key, dst); err != nil {
			return core.Scenario{}, fmt.Errorf("error decoding %s: %w", key, err)
		}
	}

	if !s.Origin.Valid() {
		return core.Scenario{}, fmt.Errorf("invalid scenario origin: %+v", s.Origin)
	}
	for i, l := range s.LocationsOfInterest {
		if !l.Valid() {
			return core.Scenario{}, fmt.Errorf("invalid location of interest %d: %+v", i, l.Location)
		}
	}
	for i, o := range s.Obstacles {
		if !o.Valid() || o.Radius <= 0 {
			return core.Scenario{}, fmt.Errorf("invalid obstacle %d: %+v", i, o)
		}
	}
	for i, t := range s.Targets {
		if !t.Valid() || t.Radius < 0 {
			return core.Scenario{}, fmt.Errorf("invalid target %d: %+v", i, t)
		}
	}
	for i, l := range s.Landmines {
		if !l.Valid() {
			return core.Scenario{}, fmt.Errorf("invalid landmine %d: %+v", i, l)
		}
	}
	return s, nil
}
