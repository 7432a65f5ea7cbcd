package llm

import (
	"context"

	"go.uber.org/zap"
)

// Invoker wraps a Client with the retry policy and per-attempt logging.
type Invoker struct {
	Client Client
	Policy Policy
	Logger *zap.Logger
}

// NewInvoker builds an Invoker with the default policy.
func NewInvoker(client Client, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{Client: client, Policy: DefaultPolicy(), Logger: logger}
}

// Invoke sends one prompt through the client under the retry policy.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	var out string
	err := inv.Policy.Do(ctx, func(attempt int) error {
		text, err := inv.Client.GenerateText(ctx, prompt)
		if err != nil {
			inv.Logger.Warn("generation attempt failed",
				zap.String("provider", inv.Client.Name()),
				zap.Int("attempt", attempt),
				zap.Bool("transient", IsTransient(err)),
				zap.Error(err))
			return err
		}
		inv.Logger.Debug("generation attempt succeeded",
			zap.String("provider", inv.Client.Name()),
			zap.Int("attempt", attempt),
			zap.Int("bytes", len(text)))
		out = text
		return nil
	})
	return out, err
}
