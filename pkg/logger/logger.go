// Package logger builds the zerolog loggers handed to the restbase client
// and the realtime package.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// Build accumulates logging destinations before Make produces the logger.
type Build struct {
	writer io.Writer
	path   string
}

// Log is a ready logger together with the file it writes to, if any.
// Callers that logged to a path own closing File.
type Log struct {
	File   *os.File
	Logger zerolog.Logger
}

func New() *Build {
	return &Build{}
}

// FromPath appends log lines to the file at path, creating it if needed.
func (build *Build) FromPath(path string) *Build {
	build.path = path
	return build
}

// FromBuffer writes log lines to w instead of a file.
func (build *Build) FromBuffer(w io.Writer) *Build {
	build.writer = w
	return build
}

// Make produces the logger. Without a path or buffer it writes to stdout.
func (build *Build) Make() (*Log, error) {
	log := &Log{}
	writer := build.writer
	if writer == nil {
		writer = os.Stdout
	}
	if build.path != "" {
		file, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		log.File = file
		writer = zerolog.SyncWriter(file)
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return log, nil
}
