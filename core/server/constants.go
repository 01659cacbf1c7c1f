package server

import "time"

const (
	// DefaultReadHeaderTimeout bounds reading request headers.
	DefaultReadHeaderTimeout = 5 * time.Second

	// DefaultReadTimeout bounds reading the whole request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout bounds writing the response. Zero disables it, which
	// streaming pages usually want.
	DefaultWriteTimeout = 0

	// DefaultIdleTimeout is the keep-alive idle timeout.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown, including in-flight pipelines.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxHeaderBytes is the maximum size of request headers.
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)
