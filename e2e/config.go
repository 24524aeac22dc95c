package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_RECEIVE_TIMEOUT bounds how long a scenario waits for a pushed frame
	ReceiveTimeout time.Duration `envconfig:"E2E_RECEIVE_TIMEOUT" default:"2s"`
	// E2E_DEBUG_FRAMES dumps every received frame for log readability
	DebugFrames bool `envconfig:"E2E_DEBUG_FRAMES" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
