// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Time-related constants
const (
	// DefaultTimeout is the default timeout for most operations
	DefaultTimeout = 30 * time.Second

	// WebSocketPingInterval is the interval for WebSocket ping/pong
	WebSocketPingInterval = 60 * time.Second

	// WebSocketWriteTimeout bounds a single WebSocket write
	WebSocketWriteTimeout = 10 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second
)

// Auth-related constants
const (
	// SessionTokenExpiry is the default session token lifetime
	SessionTokenExpiry = 7 * 24 * time.Hour
)

// Call-related constants
const (
	// CallRingTimeout is how long an unanswered outgoing call rings before
	// it is cancelled locally (the relay never reports an offline callee)
	CallRingTimeout = 60 * time.Second

	// CallEndedDisplay is how long the transient "ended" state is shown
	// after teardown; it has no protocol significance
	CallEndedDisplay = 1200 * time.Millisecond

	// CallLogListLimit caps call-history listings
	CallLogListLimit = 100
)

// Pagination constants
const (
	// DefaultMessagePageSize is the default page size for message history
	DefaultMessagePageSize = 20

	// MaxMessagePageSize caps a single message history page
	MaxMessagePageSize = 100
)

// Status post constants
const (
	// StatusExpiry is how long a status post stays visible
	StatusExpiry = 24 * time.Hour
)

// Database connection constants
const (
	// MaxConnLifetime is the maximum lifetime of a database connection
	MaxConnLifetime = 1 * time.Hour

	// MaxConnIdleTime is the maximum idle time for a database connection
	MaxConnIdleTime = 30 * time.Minute

	// HealthCheckPeriod is the interval between database health checks
	HealthCheckPeriod = 1 * time.Minute
)
