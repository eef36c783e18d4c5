package monitoring

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log formats accepted by ParseFormat.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ParseFormat validates a -log-format value.
func ParseFormat(s string) (string, error) {
	switch s {
	case FormatText, FormatJSON, FormatConsole:
		return s, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text, json or console)", s)
}

// NewZerolog builds a timestamped zerolog logger writing to w. FormatConsole
// selects the human-friendly console writer; anything else writes JSON.
func NewZerolog(w io.Writer, format string) zerolog.Logger {
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// UseZerolog routes Logf through l. A leading "[component] " tag written by
// Prefixed is lifted into a "component" field.
func UseZerolog(l zerolog.Logger) {
	SetLogger(func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		ev := l.Info()
		if strings.HasPrefix(msg, "[") {
			if end := strings.Index(msg, "] "); end > 1 {
				ev = ev.Str("component", msg[1:end])
				msg = msg[end+2:]
			}
		}
		ev.Msg(msg)
	})
}

// Configure installs the logger selected by format. FormatText keeps the
// current Logf untouched.
func Configure(w io.Writer, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f == FormatText {
		return nil
	}
	UseZerolog(NewZerolog(w, f))
	return nil
}
