package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logging hands out per system loggers sharing one output and level.
type logging struct {
	out   io.Writer
	level log.Level
	file  *lumberjack.Logger
}

func newLogging(cfg *config) *logging {
	l := &logging{
		out:   os.Stdout,
		level: log.InfoLevel,
	}

	if cfg.Debug {
		l.level = log.DebugLevel
	}

	if cfg.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		l.out = l.file
	}

	log.SetOutput(l.out)
	log.SetLevel(l.level)

	return l
}

func (l *logging) logger(system string) *log.Entry {
	logger := log.New()
	logger.SetOutput(l.out)
	logger.SetLevel(l.level)

	return logger.WithField("system", system)
}

func (l *logging) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}
