package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

type Fields = logrus.Fields

type Options struct {
	Level string
	// File enables a rotated log file next to stderr output.
	File    string
	NoColor bool
}

// NewLogger builds the process-wide logger on first call and returns it on
// every later call; later options are ignored.
func NewLogger(opts Options) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()

		level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        opts.NoColor,
			TimestampFormat: "02 Jan 06 - 15:04:05.000",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if opts.File != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    50,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
		logger.AddHook(callerHook{})
	})

	return logger
}

var wrapperFuncs = func() map[string]bool {
	pkg := packagePath()
	m := make(map[string]bool)
	for _, fn := range []string{"Debug", "Info", "Warn", "Error", "Fatal"} {
		m[pkg+"."+fn] = true
	}
	return m
}()

func packagePath() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name()
	return name[:strings.LastIndex(name, ".")]
}

// callerHook points the reported caller past the package-level helpers
// below, so log lines name the code that called Info, Warn and so on.
type callerHook struct{}

func (callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (callerHook) Fire(e *logrus.Entry) error {
	if e.Caller == nil || !wrapperFuncs[e.Caller.Function] {
		return nil
	}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if wrapperFuncs[f.Function] {
			if next, _ := frames.Next(); next.Function != "" {
				e.Caller = &next
			}
			return nil
		}
		if !more {
			return nil
		}
	}
}

// L returns the process logger, creating a default one if NewLogger was
// never called (tests, tools).
func L() *logrus.Logger {
	return NewLogger(Options{Level: "info"})
}

func Debug(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	L().WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	L().WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	L().WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	L().WithFields(fields).Error(msg)
}

func Fatal(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	L().WithFields(fields).Fatal(msg)
}
