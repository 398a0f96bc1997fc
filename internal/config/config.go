package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "beamsim.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds streaming backend settings
type WebSocketConfig struct {
	URL      string `json:"url" mapstructure:"url"`
	Secret   string `json:"secret" mapstructure:"secret"`
	Encoding string `json:"encoding" mapstructure:"encoding"`
}

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type   string          `json:"type" mapstructure:"type"`
	Memory MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Stream WebSocketConfig `json:"stream" mapstructure:"stream"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// UploadConfig holds replay server upload settings
type UploadConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// WhackConfig holds impulse tuning
type WhackConfig struct {
	Small      float64 `json:"small" mapstructure:"small"`
	Big        float64 `json:"big" mapstructure:"big"`
	Damage     float64 `json:"damage" mapstructure:"damage"`
	LegacyMass float64 `json:"legacyMass" mapstructure:"legacyMass"`
}

// BeamSettings holds the beam system tuning
type BeamSettings struct {
	MaxBeams           int           `json:"maxBeams" mapstructure:"maxBeams"`
	MaxFrameCollisions int           `json:"maxFrameCollisions" mapstructure:"maxFrameCollisions"`
	MaxShots           int           `json:"maxShots" mapstructure:"maxShots"`
	DamageTime         time.Duration `json:"damageTime" mapstructure:"damageTime"`
	ToolingTime        time.Duration `json:"toolingTime" mapstructure:"toolingTime"`
	AreaPercent        float64       `json:"areaPercent" mapstructure:"areaPercent"`
	SkillLevel         int           `json:"skillLevel" mapstructure:"skillLevel"`
	FriendlyCap        []float64     `json:"friendlyCap" mapstructure:"friendlyCap"`
	Authoritative      bool          `json:"authoritative" mapstructure:"authoritative"`
	Whack              WhackConfig   `json:"whack" mapstructure:"whack"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./beamlogs")
	viper.SetDefault("missionName", "Skirmish")
	viper.SetDefault("author", "")

	viper.SetDefault("beam.maxBeams", 500)
	viper.SetDefault("beam.maxFrameCollisions", 10)
	viper.SetDefault("beam.maxShots", 5)
	viper.SetDefault("beam.damageTime", "170ms")
	viper.SetDefault("beam.toolingTime", "1500ms")
	viper.SetDefault("beam.areaPercent", 0.4)
	viper.SetDefault("beam.skillLevel", 2)
	viper.SetDefault("beam.friendlyCap", []float64{0, 5, 10, 20, 30})
	viper.SetDefault("beam.authoritative", true)
	viper.SetDefault("beam.whack.small", 2000.0)
	viper.SetDefault("beam.whack.big", 10000.0)
	viper.SetDefault("beam.whack.damage", 150.0)
	viper.SetDefault("beam.whack.legacyMass", 100.0)

	viper.SetDefault("sim.frames", 600)
	viper.SetDefault("sim.fps", 60)
	viper.SetDefault("sim.seed", 1)
	viper.SetDefault("sim.statsEvery", 30)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "beamsim")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "beamsim")
	viper.SetDefault("influx.bucket", "beam_stats")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.stream.url", "ws://localhost:5000/stream")
	viper.SetDefault("storage.stream.secret", "")
	viper.SetDefault("storage.stream.encoding", "json")

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "beamsim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

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

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the recording backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Stream: WebSocketConfig{
			URL:      viper.GetString("storage.stream.url"),
			Secret:   viper.GetString("storage.stream.secret"),
			Encoding: viper.GetString("storage.stream.encoding"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetUploadConfig returns the replay server upload configuration.
func GetUploadConfig() UploadConfig {
	return UploadConfig{
		Enabled: viper.GetBool("upload.enabled"),
		URL:     viper.GetString("upload.url"),
		Secret:  viper.GetString("upload.secret"),
	}
}

// GetBeamSettings returns the beam system tuning.
func GetBeamSettings() BeamSettings {
	return BeamSettings{
		MaxBeams:           viper.GetInt("beam.maxBeams"),
		MaxFrameCollisions: viper.GetInt("beam.maxFrameCollisions"),
		MaxShots:           viper.GetInt("beam.maxShots"),
		DamageTime:         viper.GetDuration("beam.damageTime"),
		ToolingTime:        viper.GetDuration("beam.toolingTime"),
		AreaPercent:        viper.GetFloat64("beam.areaPercent"),
		SkillLevel:         viper.GetInt("beam.skillLevel"),
		FriendlyCap:        floatSlice(viper.Get("beam.friendlyCap")),
		Authoritative:      viper.GetBool("beam.authoritative"),
		Whack: WhackConfig{
			Small:      viper.GetFloat64("beam.whack.small"),
			Big:        viper.GetFloat64("beam.whack.big"),
			Damage:     viper.GetFloat64("beam.whack.damage"),
			LegacyMass: viper.GetFloat64("beam.whack.legacyMass"),
		},
	}
}

// floatSlice accepts both the []float64 default and the []any a JSON file decodes to.
func floatSlice(v any) []float64 {
	switch vals := v.(type) {
	case []float64:
		return vals
	case []any:
		out := make([]float64, 0, len(vals))
		for _, x := range vals {
			switch n := x.(type) {
			case float64:
				out = append(out, n)
			case int:
				out = append(out, float64(n))
			}
		}
		return out
	default:
		return nil
	}
}
