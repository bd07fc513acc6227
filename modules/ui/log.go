package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func init() {
	pterm.SetDefaultOutput(colorable.NewColorableStdout())
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableStyling()
	}
	pterm.PrintDebugMessages = true
}

type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
)

var (
	outputMutex sync.Mutex

	logLevel = LevelInfo

	Zerotime  bool
	starttime = time.Now()

	logfile      *os.File
	filelogger   zerolog.Logger
	logfilelevel = LevelInfo
)

func SetLoglevel(i LogLevel) {
	outputMutex.Lock()
	logLevel = i
	outputMutex.Unlock()
}

// SetLogFile starts writing JSON log lines to path, an empty path stops file logging
func SetLogFile(path string, i LogLevel) error {
	outputMutex.Lock()
	defer outputMutex.Unlock()

	if logfile != nil {
		logfile.Close()
		logfile = nil
	}

	if path == "" {
		return nil
	}

	os.MkdirAll(filepath.Dir(path), 0700)

	var err error
	logfile, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open logfile %s: %w", path, err)
	}

	logfilelevel = i
	filelogger = zerolog.New(logfile).With().Timestamp().Logger()
	return nil
}

type Logger struct {
	ll    LogLevel
	pterm pterm.PrefixPrinter
}

func (t Logger) Msgf(format string, args ...any) {
	outputMutex.Lock()

	if logfile != nil && logfilelevel <= t.ll {
		filelogger.WithLevel(t.ll.zerolog()).Msgf(format, args...)
	}

	if logLevel <= t.ll {
		var timetext string
		if Zerotime {
			elapsed := time.Since(starttime)
			timetext = fmt.Sprintf("%02d:%02d:%02d.%03d", int(elapsed.Hours()), int(elapsed.Minutes())%60, int(elapsed.Seconds())%60, elapsed.Milliseconds()%1000)
		} else {
			timetext = time.Now().Format("15:04:05.000")
		}
		tprefix := pterm.DefaultBasicText.Sprint(timetext + " ")
		pterm.Fprint(t.pterm.Writer, tprefix+t.pterm.Sprintfln(format, args...))
	}

	if t.ll == LevelFatal {
		if logfile != nil {
			logfile.Close()
		}
		os.Exit(1)
	}
	outputMutex.Unlock()
	if t.ll == LevelPanic {
		panic(fmt.Sprintf(format, args...))
	}
}

func (t Logger) Msg(msg string) Logger {
	t.Msgf("%s", msg)
	return t
}

func (t Logger) Err(e error) Logger {
	t.Msgf("Error: %v", e)
	return t
}

func Trace() Logger {
	return Logger{
		LevelTrace,
		pterm.PrefixPrinter{
			MessageStyle: &pterm.ThemeDefault.InfoMessageStyle,
			Prefix: pterm.Prefix{
				Style: &pterm.Style{pterm.FgCyan},
				Text:  "TRACE",
			},
		},
	}
}

func Debug() Logger {
	return Logger{
		LevelDebug,
		pterm.Debug,
	}
}

func Info() Logger {
	return Logger{
		LevelInfo,
		pterm.PrefixPrinter{
			MessageStyle: &pterm.ThemeDefault.InfoMessageStyle,
			Prefix: pterm.Prefix{
				Style: &pterm.ThemeDefault.InfoPrefixStyle,
				Text:  "INFORMA",
			},
		},
	}
}

func Success() Logger {
	return Logger{
		LevelInfo,
		pterm.Success,
	}
}

func Warn() Logger {
	return Logger{
		LevelWarn,
		pterm.PrefixPrinter{
			MessageStyle: &pterm.ThemeDefault.WarningMessageStyle,
			Prefix: pterm.Prefix{
				Style: &pterm.ThemeDefault.WarningPrefixStyle,
				Text:  "WARNING",
			},
		},
	}
}

func Error() Logger {
	return Logger{
		LevelError,
		pterm.Error,
	}
}

func Fatal() Logger {
	return Logger{
		LevelFatal,
		pterm.Fatal,
	}
}
