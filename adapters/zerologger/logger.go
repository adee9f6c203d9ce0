// Package zerologger backs the glog logging contract with zerolog.
package zerologger

import (
	"context"
	"fmt"
	"io"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/rs/zerolog"
)

// Logger writes glog calls as zerolog events. Arguments are read as
// alternating key/value pairs.
type Logger struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// NewJSON logs JSON lines to w at the given level, with timestamps.
func NewJSON(w io.Writer, level zerolog.Level) *Logger {
	return New(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

func (l *Logger) Trace(msg string, args ...any) { l.write(l.logger.Trace(), msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.write(l.logger.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.write(l.logger.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.write(l.logger.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.write(l.logger.Error(), msg, args) }

// Fatal logs at fatal level but leaves exiting to the caller.
func (l *Logger) Fatal(msg string, args ...any) {
	l.write(l.logger.WithLevel(zerolog.FatalLevel), msg, args)
}

func (l *Logger) WithContext(ctx context.Context) glog.Logger {
	if ctx == nil {
		return l
	}
	return &Logger{logger: l.logger.With().Ctx(ctx).Logger()}
}

func (l *Logger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With().Fields(fields).Logger()}
}

func (l *Logger) write(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			event = event.Interface("!BADKEY", args[i])
			break
		}
		event = appendField(event, key, args[i+1])
	}
	event.Msg(msg)
}

func appendField(event *zerolog.Event, key string, value any) *zerolog.Event {
	switch typed := value.(type) {
	case string:
		return event.Str(key, typed)
	case int:
		return event.Int(key, typed)
	case int64:
		return event.Int64(key, typed)
	case float64:
		return event.Float64(key, typed)
	case bool:
		return event.Bool(key, typed)
	case time.Duration:
		return event.Dur(key, typed)
	case time.Time:
		return event.Time(key, typed)
	case error:
		return event.AnErr(key, typed)
	case map[string]string:
		dict := zerolog.Dict()
		for k, v := range typed {
			dict = dict.Str(k, v)
		}
		return event.Dict(key, dict)
	default:
		return event.Interface(key, typed)
	}
}

// Provider hands out loggers tagged with their name.
type Provider struct {
	root zerolog.Logger
}

func NewProvider(root zerolog.Logger) *Provider {
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil {
		return glog.Nop()
	}
	return New(p.root.With().Str("logger", name).Logger())
}

var (
	_ glog.Logger         = (*Logger)(nil)
	_ glog.FieldsLogger   = (*Logger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)
