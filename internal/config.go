package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	JWTSecret string `env:"JWT_SECRET,required=true"`
	JWTIssuer string `env:"JWT_ISSUER,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	// Empty NatsURL selects the in-process bus: fine for a single
	// gateway process, wrong as soon as there are two.
	NatsURL              string        `env:"NATS_URL"`
	NatsMaxReconnects    int           `env:"NATS_MAX_RECONNECTS,default=30"`
	NatsReconnectWait    time.Duration `env:"NATS_RECONNECT_WAIT,default=2s"`
	BusRecoveryWindow    time.Duration `env:"BUS_RECOVERY_WINDOW,default=1m"`
	BusCheckInterval     time.Duration `env:"BUS_CHECK_INTERVAL,default=5s"`
	PublishRetries       int           `env:"PUBLISH_RETRIES,default=3"`
	PublishBackoff       time.Duration `env:"PUBLISH_BACKOFF,default=100ms"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`

	MaxSessions      int           `env:"MAX_SESSIONS,required=true"`
	AuthTimeout      time.Duration `env:"AUTH_TIMEOUT,default=10s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PingInterval     time.Duration `env:"PING_INTERVAL,default=30s"`
	ReadLimit        int64         `env:"READ_LIMIT,default=65536"`
	MaxContentLength int           `env:"MAX_CONTENT_LENGTH,required=true"`

	CharReplacement    string `env:"CHARACTER_REPLACEMENT,default=*"`
	IncludeDisplayName bool   `env:"INCLUDE_DISPLAY_NAME,default=false"`
	LimitMessages      *int   `env:"LIMIT_MESSAGES"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
