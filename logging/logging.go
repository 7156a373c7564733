// Package logging configures the diagnostic logger.
//
// Step output meant for the operator is printed by the bootstrap itself; the
// logger only carries diagnostics and is silent unless verbosity is raised.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appname = "mosint-bootstrap"

// Level maps the number of -v flags to a log level.
func Level(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger to write to stderr and to a log file
// under the XDG state directory. The file is only created once something is
// logged at the configured level, and failing to open it only loses the file.
func Setup(verbosity int) {
	zerolog.SetGlobalLevel(Level(verbosity))

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}

	path := FilePath()

	log.Logger = zerolog.New(io.MultiWriter(console, &lazyFile{path: path})).With().Timestamp().Logger()

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("file", path).Msg("logger initialized")
}

// FilePath returns where the log file is written.
func FilePath() string {
	return filepath.Join(xdg.StateHome, appname, "bootstrap.log")
}

// lazyFile opens its file on the first write.
type lazyFile struct {
	path string

	once sync.Once
	file *os.File
	err  error
}

func (l *lazyFile) Write(p []byte) (int, error) {
	l.once.Do(func() {
		l.file, l.err = openFile(l.path)
		if l.err != nil {
			fmt.Fprintf(os.Stderr, "unable to write log file: %s\n", l.err)
		}
	})

	if l.err != nil {
		// keep the console writer going
		return len(p), nil
	}

	return l.file.Write(p)
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
