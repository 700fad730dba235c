package cli

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"homelink/internal/config"
	"homelink/internal/constants"
	"homelink/internal/logging"
)

// zerologConfigOnce ensures zerolog global settings are configured
// exactly once.
var zerologConfigOnce sync.Once //nolint:gochecknoglobals // one-time configuration

func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})
}

// InitLogger creates the daemon logger from the verbosity flags.
//
// Levels: verbose maps to Debug, quiet to Warn, otherwise Info. A TTY
// gets the console writer unless NO_COLOR is set; everything else gets
// JSON on stderr. Output is mirrored to a rotating file under the
// homelink home, with sensitive values filtered before they reach
// disk. A failed file writer degrades to console-only.
func InitLogger(verbose, quiet bool) zerolog.Logger {
	configureZerologGlobals()

	writer := selectOutput()
	if fileWriter, err := createLogFileWriter(); err == nil {
		writer = zerolog.MultiLevelWriter(writer, logging.NewFilteringWriter(fileWriter))
	}

	logger := zerolog.New(writer).
		Level(selectLevel(verbose, quiet)).
		With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}
	return os.Stderr
}

func createLogFileWriter() (io.Writer, error) {
	dir, err := config.LogDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.LogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}, nil
}
