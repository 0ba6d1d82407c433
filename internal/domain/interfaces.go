package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetRedisURL() string
	GetContentCacheTTL() time.Duration
	GetAllowedOrigins() []string
}

// AuthService validates bearer tokens against the backend's auth server.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}
