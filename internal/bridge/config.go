package bridge

import (
	"github.com/raysh454/hybridhttp/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address of the bridge.
	ListenAddr string

	// MaxBodyBytes caps a POSTed options document. Zero means 32 MiB.
	MaxBodyBytes int64

	Logger logging.Logger
}
