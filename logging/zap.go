package logging

import (
	"go.uber.org/zap"

	"github.com/krisalay/resource-cache/types"
)

// ZapObserver writes cache diagnostics as structured zap records.
type ZapObserver struct {
	logger *zap.Logger
}

var _ types.Observer = (*ZapObserver)(nil)

// NewZapObserver returns an observer logging to l.
// It uses a no-op logger if l is nil.
func NewZapObserver(l *zap.Logger) *ZapObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapObserver{logger: l}
}

func (o *ZapObserver) Created(id string, size int) {
	o.logger.Debug("resource created", zap.String("id", id), zap.Int("bytes", size))
}

func (o *ZapObserver) Destroyed(id string, size int) {
	o.logger.Debug("resource destroyed", zap.String("id", id), zap.Int("bytes", size))
}

func (o *ZapObserver) Hit(id string) {
	o.logger.Debug("resource retrieved from cache", zap.String("id", id))
}

func (o *ZapObserver) Miss(id string) {
	o.logger.Debug("resource not found in cache, loading", zap.String("id", id))
}

func (o *ZapObserver) Expired(id string) {
	o.logger.Debug("resource expired, reloading", zap.String("id", id))
}

func (o *ZapObserver) Pruned(id string) {
	o.logger.Info("pruning expired resource", zap.String("id", id))
}

func (o *ZapObserver) LoadFailed(id string, err error) {
	o.logger.Warn("resource load failed", zap.String("id", id), zap.Error(err))
}
