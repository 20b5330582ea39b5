// Package logging 建立整個服務共用的 zap logger。
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"identity_admin/pkg/config"
)

// New 依設定建立 logger；development 模式輸出易讀格式，否則輸出 JSON。
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
