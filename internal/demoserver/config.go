package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// BridgeURL is linked from the playground page so it can call the
	// plugin; empty hides the playground controls.
	BridgeURL string

	// MaxDownloadBytes caps /download/{size}.
	MaxDownloadBytes int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:             9999,
		BridgeURL:        "http://127.0.0.1:8787",
		MaxDownloadBytes: 64 << 20,
	}
}
