package logger

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// sentryCore is a zap core that ships entries to Sentry as events.
type sentryCore struct {
	zapcore.LevelEnabler
	client *sentry.Client
	fields []zapcore.Field
}

func newSentryCore(opts sentry.ClientOptions, level zapcore.LevelEnabler) (*sentryCore, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("error starting Sentry client: %w", err)
	}
	return &sentryCore{LevelEnabler: level, client: client}, nil
}

func (sc *sentryCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *sc
	clone.fields = append(append([]zapcore.Field(nil), sc.fields...), fields...)
	return &clone
}

func (sc *sentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if sc.Enabled(ent.Level) {
		return ce.AddCore(ent, sc)
	}
	return ce
}

func (sc *sentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range append(sc.fields, fields...) {
		f.AddTo(enc)
	}

	event := sentry.NewEvent()
	event.Level = sentryLevel(ent.Level)
	event.Message = ent.Message
	event.Timestamp = ent.Time
	event.Logger = ent.LoggerName
	event.Extra = enc.Fields

	var hint *sentry.EventHint
	if errVal, ok := enc.Fields["error"].(string); ok {
		hint = &sentry.EventHint{OriginalException: errors.New(errVal)}
		event.Exception = []sentry.Exception{{Type: "error", Value: errVal}}
	}

	tags := map[string]string{}
	for k, v := range enc.Fields {
		if s, ok := v.(string); ok && k != "error" {
			tags[k] = s
		}
	}
	scope := sentry.NewScope()
	scope.SetTags(tags)

	sc.client.CaptureEvent(event, hint, scope)
	return nil
}

func (sc *sentryCore) Sync() error {
	if !sc.client.Flush(5 * time.Second) {
		return errors.New("failed to flush Sentry, some events may not have been sent")
	}
	return nil
}

func sentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
