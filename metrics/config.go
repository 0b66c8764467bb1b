package metrics

import "fmt"

// Config of the prometheus endpoint
type Config struct {
	// Enabled serves /metrics, /health and /status when true
	Enabled bool `mapstructure:"Enabled"`
	// Host to listen on
	Host string `mapstructure:"Host"`
	// Port to listen on
	Port int `mapstructure:"Port"`
}

// Addr is the listen address of the server
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
