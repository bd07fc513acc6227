package ui

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var logLevelNames = map[LogLevel]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
	LevelPanic: "panic",
}

func (l LogLevel) String() string {
	if name, found := logLevelNames[l]; found {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// LogLevelString parses a level name, case insensitive
func LogLevelString(s string) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range logLevelNames {
		if name == s {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("%s does not belong to LogLevel values", s)
}

func LogLevelStrings() []string {
	result := make([]string, 0, len(logLevelNames))
	for l := LevelTrace; l <= LevelPanic; l++ {
		result = append(result, logLevelNames[l])
	}
	return result
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	case LevelPanic:
		return zerolog.PanicLevel
	}
	return zerolog.NoLevel
}
