// Package logging provides the colored, component-tagged console logger
// used across the runtime, adapted from the wider product's logging
// conventions to this module's components.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// ColoredLogger wraps zap.Logger with optional colored console output.
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component tags which part of the runtime a log line came from, for
// color coding.
type Component string

const (
	ComponentPool     Component = "POOL"
	ComponentCache    Component = "CACHE"
	ComponentSandbox  Component = "SANDBOX"
	ComponentRouting  Component = "ROUTING"
	ComponentPipeline Component = "PIPELINE"
	ComponentHTTP     Component = "HTTP"
	ComponentStorage  Component = "STORAGE"
	ComponentGeneral  Component = "GENERAL"
)

// componentColors maps each component straight to the color its log lines
// render in. Control-path components (Pool, Sandbox) that gate whether an
// invocation proceeds at all get the warm end of the palette; components
// that only move data once a call is already admitted (Cache, Storage) get
// the cool end, so a scrolling console reads control-flow trouble apart
// from data-path trouble at a glance.
var componentColors = map[Component]string{
	ComponentPool:     BrightYellow,
	ComponentSandbox:  BrightYellow,
	ComponentCache:    BrightCyan,
	ComponentStorage:  Cyan,
	ComponentRouting:  Green,
	ComponentPipeline: Magenta,
	ComponentHTTP:     Blue,
	ComponentGeneral:  BrightBlue,
}

func getComponentColor(c Component) string {
	if color, ok := componentColors[c]; ok {
		return color
	}
	return White
}

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  Gray,
	zapcore.InfoLevel:   BrightWhite,
	zapcore.WarnLevel:   BrightYellow,
	zapcore.ErrorLevel:  BrightRed,
	zapcore.DPanicLevel: Red,
	zapcore.PanicLevel:  Red,
	zapcore.FatalLevel:  Red,
}

func getLevelColor(level zapcore.Level) string {
	if color, ok := levelColors[level]; ok {
		return color
	}
	return White
}

func coloredConsoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%s%s%s", Dim, t.Format("2006-01-02T15:04:05.000Z0700"), Reset))
	}
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		color := getLevelColor(level)
		enc.AppendString(fmt.Sprintf("%s%s%-5s%s", color, Bold, strings.ToUpper(level.String()), Reset))
	}
	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%s%s%s", Dim, caller.TrimmedPath(), Reset))
	}
	return zapcore.NewConsoleEncoder(config)
}

// New builds the runtime's logger. With enableColors it is an
// interactive-terminal console encoder with ANSI-tagged components and
// levels; otherwise it emits structured single-line JSON (zap's production
// encoder config) suited to a piped or daemonized functiond whose stdout
// lands in a log collector rather than a scrollback buffer.
func New(enableColors bool) (*ColoredLogger, error) {
	var encoder zapcore.Encoder
	if enableColors {
		encoder = coloredConsoleEncoder()
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &ColoredLogger{Logger: logger, enableColors: enableColors}, nil
}

// ComponentInfo prefixes msg with a [COMPONENT] tag (colored when colors
// are enabled) and logs at INFO.
func (l *ColoredLogger) ComponentInfo(c Component, msg string, fields ...zap.Field) {
	l.Info(l.tag(c, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(c Component, msg string, fields ...zap.Field) {
	l.Warn(l.tag(c, msg), fields...)
}

func (l *ColoredLogger) ComponentError(c Component, msg string, fields ...zap.Field) {
	l.Error(l.tag(c, msg), fields...)
}

func (l *ColoredLogger) tag(c Component, msg string) string {
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(c), c, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", c, msg)
}
