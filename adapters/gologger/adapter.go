package gologger

import (
	"context"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Resolve picks the logger for component name. A provider wins over a
// direct logger and the provider's named logger wins over the resolved one.
// The returned logger is never nil.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	name = strings.TrimSpace(name)
	provider, logger = glog.Resolve(name, provider, logger)
	if provider != nil {
		if named := provider.GetLogger(name); named != nil {
			logger = named
		}
	}
	return provider, glog.Ensure(logger)
}

// WithFields attaches fields through glog.FieldsLogger when supported.
// Other loggers get the fields prepended as sorted key/value args.
func WithFields(logger glog.Logger, fields map[string]any) glog.Logger {
	logger = glog.Ensure(logger)
	if len(fields) == 0 {
		return logger
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	if fieldsLogger, ok := logger.(glog.FieldsLogger); ok {
		return fieldsLogger.WithFields(copied)
	}
	return &argsLogger{logger: logger, args: flatten(copied)}
}

type argsLogger struct {
	logger glog.Logger
	args   []any
}

func (l *argsLogger) with(args []any) []any {
	out := make([]any, 0, len(l.args)+len(args))
	out = append(out, l.args...)
	return append(out, args...)
}

func (l *argsLogger) Trace(msg string, args ...any) { l.logger.Trace(msg, l.with(args)...) }
func (l *argsLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, l.with(args)...) }
func (l *argsLogger) Info(msg string, args ...any)  { l.logger.Info(msg, l.with(args)...) }
func (l *argsLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, l.with(args)...) }
func (l *argsLogger) Error(msg string, args ...any) { l.logger.Error(msg, l.with(args)...) }
func (l *argsLogger) Fatal(msg string, args ...any) { l.logger.Fatal(msg, l.with(args)...) }

func (l *argsLogger) WithContext(ctx context.Context) glog.Logger {
	return &argsLogger{logger: l.logger.WithContext(ctx), args: l.args}
}

func (l *argsLogger) WithFields(fields map[string]any) glog.Logger {
	return &argsLogger{logger: l.logger, args: append(append([]any(nil), l.args...), flatten(fields)...)}
}

func flatten(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

var (
	_ glog.Logger       = (*argsLogger)(nil)
	_ glog.FieldsLogger = (*argsLogger)(nil)
)
