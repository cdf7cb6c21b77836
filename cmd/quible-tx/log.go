package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var log = newLogger(os.Stderr)

func init() {
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// newLogger returns a console logger writing to w. Errors logged with
// .Stack() carry their pkg/errors stack as the event's "stack" field.
func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    w != os.Stderr,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// SetLogLevel sets the global level from its name ("debug", "info", ...).
func SetLogLevel(name string) error {
	if name == "" {
		return nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", name)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
