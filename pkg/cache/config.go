package cache

import "time"

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// DefaultTTL applies when neither the config nor the caller picks a TTL.
const DefaultTTL = 300 * time.Second

type Config struct {
	Driver          string
	Addr            string
	Password        string
	DB              int
	Prefix          string
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}
