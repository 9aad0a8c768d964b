package usecase

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option 設定 usecase
type Option func(*options)

// WithLogger 設定 logger，預設不輸出
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock 設定時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
