//go:build !tinygo

package trace

import "go.uber.org/zap"

// ZapOutput forwards records to a zap logger on hosts.
type ZapOutput struct {
	l *zap.Logger
}

func NewZapOutput(l *zap.Logger) *ZapOutput {
	return &ZapOutput{l: l.WithOptions(zap.AddCallerSkip(2))}
}

func (o *ZapOutput) Emit(l Level, msg []byte) {
	s := string(msg)
	switch l {
	case Debug:
		o.l.Debug(s)
	case Info:
		o.l.Info(s)
	case Warning:
		o.l.Warn(s)
	default:
		o.l.Error(s)
	}
}

// Sync flushes the underlying logger.
func (o *ZapOutput) Sync() error { return o.l.Sync() }
