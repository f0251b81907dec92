package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type EncoderConfig struct {
	DefaultSize       int    `yaml:"defaultSize"`
	DefaultLevel      string `yaml:"defaultLevel" validate:"in:L,M,Q,H"`
	DefaultForeground string `yaml:"defaultForeground"`
	DefaultBackground string `yaml:"defaultBackground"`
}

type DecoderConfig struct {
	MaxWorkingDim int           `yaml:"maxWorkingDim"`
	FetchTimeout  time.Duration `yaml:"fetchTimeout"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver" validate:"required|in:memory,sqlite"`
	SqlitePath string `yaml:"sqlitePath"`
}

type RegistryConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	TTL     int  `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TemplateConfig seeds the template provider from the config file.
// Template administration itself lives outside this service.
type TemplateConfig struct {
	ID              string `yaml:"id"`
	Version         int    `yaml:"version"`
	DisplayName     string `yaml:"displayName"`
	Foreground      string `yaml:"foreground"`
	Background      string `yaml:"background"`
	Level           string `yaml:"level"`
	CustomDesign    bool   `yaml:"customDesign"`
	Padding         int    `yaml:"padding"`
	Border          bool   `yaml:"border"`
	BorderColor     string `yaml:"borderColor"`
	BorderWidth     int    `yaml:"borderWidth"`
	BackgroundColor string `yaml:"backgroundColor"`
	ShowText        bool   `yaml:"showText"`
	TextContent     string `yaml:"textContent"`
	TextColor       string `yaml:"textColor"`
	TextHeight      int    `yaml:"textHeight"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server           `yaml:"webServer"`
	Persistence Persistence      `yaml:"persistence"`
	Logger      LoggerConfig     `yaml:"logger"`
	Encoder     EncoderConfig    `yaml:"encoder"`
	Decoder     DecoderConfig    `yaml:"decoder"`
	Store       StoreConfig      `yaml:"store"`
	Registry    RegistryConfig   `yaml:"registry"`
	Cache       CacheConfig      `yaml:"cache"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Templates   []TemplateConfig `yaml:"templates"`
}
