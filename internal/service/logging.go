package service

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// NewLogger returns a JSON logger with the given prefix and level name
// (DEBUG, INFO, WARN, ERROR, OFF).  Unknown levels fall back to INFO.
func NewLogger(prefix, level string) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(parseLevel(level))
	l.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)
	return l
}

func parseLevel(s string) log.Lvl {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return log.DEBUG
	case "WARN":
		return log.WARN
	case "ERROR":
		return log.ERROR
	case "OFF":
		return log.OFF
	}
	return log.INFO
}

const publishTimeout = 3 * time.Second

// publish hands an event to events without letting a failure reach the
// caller.  events is expected not to block (see queue.AsyncPublisher);
// publishTimeout bounds it when it does.
func publish(ctx context.Context, logger *log.Logger, events EventPublisher, key string, event any) {
	if events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := events.Publish(ctx, key, event); err != nil {
		logger.Warnj(log.JSON{"msg": "publish failed", "event": key, "error": err.Error()})
	}
}
