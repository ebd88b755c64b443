// If you are AI: This file defines the configuration structure for roomlink.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete process configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Connection ConnectionConfig `yaml:"connection"`
	Protocol   ProtocolConfig   `yaml:"protocol"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// HTTPConfig defines the port serving health, metrics, events and the API.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// ConnectionConfig is the static connection descriptor.
type ConnectionConfig struct {
	IP             string                 `yaml:"ip"`
	Port           int                    `yaml:"port"`
	App            string                 `yaml:"app"`
	StreamURL      string                 `yaml:"stream_url"` // defaults to rtmp://ip:port/app
	PageURL        string                 `yaml:"page_url"`
	SWFURL         string                 `yaml:"swf_url"`
	Proxy          string                 `yaml:"proxy"` // host:port or http://, socks5:// URL
	AuthCookie     string                 `yaml:"auth_cookie"`
	PublishName    string                 `yaml:"publish_name,omitempty"`
	RestrictedArea bool                   `yaml:"restricted_area"` // run the secondary session
	Params         map[string]interface{} `yaml:"params,omitempty"`
	// SecondaryParams replace Params for the secondary session.
	SecondaryParams map[string]interface{} `yaml:"secondary_params,omitempty"`
}

// ProtocolConfig tunes the protocol engine.
type ProtocolConfig struct {
	ChunkSize    uint32 `yaml:"chunk_size"`
	FlashVersion string `yaml:"flash_version"`
	// Expected control values; an explicit 0 disables the check.
	WindowAckSize      *uint32       `yaml:"window_ack_size"`
	PeerBandwidth      *uint32       `yaml:"peer_bandwidth"`
	PeerBandwidthLimit *uint8        `yaml:"peer_bandwidth_limit"`
	DialTimeout        time.Duration `yaml:"dial_timeout"`
	KeepAlive          time.Duration `yaml:"keepalive"`
	// PingInterval spaces ping requests on connected sessions; 0 disables them.
	PingInterval time.Duration          `yaml:"ping_interval"`
	Routes       map[string]RouteConfig `yaml:"routes,omitempty"`
}

// RouteConfig places one outbound command on a chunk channel.
type RouteConfig struct {
	Channel  uint32 `yaml:"channel"`
	OnStream bool   `yaml:"on_stream"`
}

// ReconnectConfig is the lifecycle manager policy.
type ReconnectConfig struct {
	BaseDelay       time.Duration `yaml:"base_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	SecondaryDelay  time.Duration `yaml:"secondary_delay"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 disables periodic re-resolve
	ResetUptime     bool          `yaml:"reset_uptime"`
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Connection.Port == 0 {
		c.Connection.Port = 1935
	}
	if c.Connection.StreamURL == "" && c.Connection.IP != "" {
		c.Connection.StreamURL = fmt.Sprintf("rtmp://%s:%d/%s", c.Connection.IP, c.Connection.Port, c.Connection.App)
	}

	p := &c.Protocol
	if p.ChunkSize == 0 {
		p.ChunkSize = 128
	}
	if p.FlashVersion == "" {
		p.FlashVersion = "WIN 22.0.0.209"
	}
	if p.WindowAckSize == nil {
		p.WindowAckSize = uint32Ptr(2500000)
	}
	if p.PeerBandwidth == nil {
		p.PeerBandwidth = uint32Ptr(2500000)
	}
	if p.PeerBandwidthLimit == nil {
		limit := uint8(2)
		p.PeerBandwidthLimit = &limit
	}
	if p.DialTimeout == 0 {
		p.DialTimeout = 10 * time.Second
	}
	if p.KeepAlive == 0 {
		p.KeepAlive = 10 * time.Second
	}

	r := &c.Reconnect
	if r.BaseDelay == 0 {
		r.BaseDelay = 10 * time.Second
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = 900 * time.Second
	}
	if r.SecondaryDelay == 0 {
		r.SecondaryDelay = 10 * time.Second
	}
}

// uint32Ptr returns a pointer to v.
func uint32Ptr(v uint32) *uint32 {
	return &v
}
