package notifier

import (
	"fmt"

	"github.com/philippseith/signalr"
	"go.uber.org/zap"
)

type signalRLogger struct {
	log *zap.Logger
}

// NewSignalRLogger adapts zap to the key/value logger SignalR expects.
// Entries carrying an "error" key are logged as warnings, the rest at debug.
func NewSignalRLogger(log *zap.Logger) signalr.StructuredLogger {
	return &signalRLogger{log: log}
}

func (l *signalRLogger) Log(keyVals ...interface{}) error {
	fields := make([]zap.Field, 0, len(keyVals)/2)
	msg := "signalr"
	isErr := false

	for i := 0; i+1 < len(keyVals); i += 2 {
		key := fmt.Sprint(keyVals[i])
		val := keyVals[i+1]
		switch key {
		case "message", "msg":
			msg = fmt.Sprint(val)
			continue
		case "error":
			isErr = val != nil
		case "ts", "caller":
			continue
		}
		fields = append(fields, zap.Any(key, val))
	}

	if isErr {
		l.log.Warn(msg, fields...)
	} else {
		l.log.Debug(msg, fields...)
	}
	return nil
}
