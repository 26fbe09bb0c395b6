package logger

import (
	"log"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL logging through logrus.
func GormLogger(level string) gormlogger.Interface {
	var lvl gormlogger.LogLevel
	switch level {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "info", "debug", "trace":
		lvl = gormlogger.Info
	default:
		lvl = gormlogger.Warn
	}
	w := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	return gormlogger.New(
		log.New(w, "", 0),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
