package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogGateway only writes deliveries to the log. It stands in for a channel
// whose provider is not configured, so Deliver always reports ErrNotDelivered.
// The code itself is logged at debug level.
type LogGateway struct {
	logger *zap.Logger
}

// NewLogGateway constructs the gateway.
func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Deliver(ctx context.Context, to Destination, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.logger.Info("notification not sent, no provider configured",
		zap.String("channel", string(to.Channel)),
		zap.String("purpose", string(msg.Purpose)))
	g.logger.Debug("notification payload",
		zap.String("to", to.Address),
		zap.String("code", msg.Code))
	return ErrNotDelivered
}
