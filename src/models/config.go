package models

// MConfig Structure
type MConfig struct {
	Name                 string          `yaml:"name"`
	Host                 string          `yaml:"host"`
	Port                 int             `yaml:"port"`
	LogLevel             string          `yaml:"log_level"`
	IdleTimeoutSeconds   int             `yaml:"idle_timeout_seconds"`
	ShutdownGraceSeconds int             `yaml:"shutdown_grace_seconds"`
	RingCapacity         int             `yaml:"ring_capacity"`
	Console              MConsoleConfig  `yaml:"console"`
	Platform             MPlatformConfig `yaml:"platform"`
	Storage              MStorageConfig  `yaml:"storage"`
}

type MConsoleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	RefreshMs int    `yaml:"refresh_ms"`
	MarketMic string `yaml:"market_mic"`
}

type MPlatformConfig struct {
	Login                 int64  `yaml:"login"`
	Password              string `yaml:"password"`
	Server                string `yaml:"server"`
	Path                  string `yaml:"path"`
	Simulated             bool   `yaml:"simulated"`
	ExpirationSkewSeconds int64  `yaml:"expiration_skew_seconds"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}
