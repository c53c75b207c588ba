package httpserver

import (
	"net/http"
	"time"
)

// Timeouts sized for this service: a domain lookup fans out to several chain
// RPC round trips and may try several avatar gateways, so the write window is
// generous while slow-header clients are still cut off quickly.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// New builds an HTTP server with defaults for this project.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
