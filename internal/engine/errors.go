package engine

import (
	"context"
	"errors"

	"github.com/mj1618/uipilot/internal/control"
	"github.com/mj1618/uipilot/internal/vision"
)

// Error taxonomy. Connection, channel-command, provider-transport, and
// timeout failures are fatal for the call and surface as returned errors;
// resolution misses, unready bridges, and unparseable model replies are
// expected cascade outcomes and are absorbed into result statuses instead.

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConnection reports whether err means the control channel is unreachable.
func IsConnection(err error) bool {
	return errors.Is(err, control.ErrConnection)
}

// IsChannelCommand reports whether err is a hard channel command failure.
func IsChannelCommand(err error) bool {
	var ce *control.CommandError
	return errors.As(err, &ce)
}

// IsProviderTransport reports whether err is a vision transport failure.
func IsProviderTransport(err error) bool {
	var te *vision.TransportError
	return errors.As(err, &te)
}

// statusFor classifies a fatal error into its result status.
func statusFor(err error) Status {
	if IsTimeout(err) {
		return StatusTimeout
	}
	return StatusFailed
}
