package internal

import "time"

// Config holds every environment variable the server reads. Loaded in cmd
// with godotenv + go-env.
type Config struct {
	Host      string `env:"HOST,default=localhost"`
	Port      int    `env:"PORT,default=8080"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`

	// PublicURL is the externally reachable base used in attachment links.
	PublicURL     string `env:"PUBLIC_URL,default=http://localhost:8080"`
	AttachmentDir string `env:"ATTACHMENT_DIR,default=./attachments"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	RouterBufferSize int           `env:"ROUTER_BUFFER_SIZE,default=256"`
	StatsInterval    time.Duration `env:"STATS_INTERVAL,default=5s"`

	LogLevel string `env:"LOG_LEVEL,required=true"`
}
