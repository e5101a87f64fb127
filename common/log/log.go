package log

import (
	"os"

	"github.com/op/go-logging"
)

var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} ▶ %{level:.4s}%{color:reset} %{message}`,
)

// Log is the default logger for packages that do not set up their own.
var Log = SetupLogging("varlink", logging.INFO, false)

// SetupLogging configures a go-logging logger writing to stderr, and
// additionally to syslog when requested. The level may be overridden
// with the VARLINK_LOG_LEVEL environment variable.
func SetupLogging(prefix string, defaultLevel logging.Level, useSyslog bool) *logging.Logger {
	logger := logging.MustGetLogger(prefix)

	level := defaultLevel
	if env := os.Getenv("VARLINK_LOG_LEVEL"); env != "" {
		if parsed, err := logging.LogLevel(env); err == nil {
			level = parsed
		}
	}

	backends := []logging.Backend{}

	if os.Getenv("VARLINK_NO_STDERR") == "" {
		stderrBackend := logging.NewLogBackend(os.Stderr, "", 0)
		stderrFormatter := logging.NewBackendFormatter(stderrBackend, format)
		stderrLeveled := logging.AddModuleLevel(stderrFormatter)
		stderrLeveled.SetLevel(level, "")
		backends = append(backends, stderrLeveled)
	}

	if useSyslog {
		syslogBackend, err := logging.NewSyslogBackend(prefix)
		if err == nil {
			syslogLeveled := logging.AddModuleLevel(syslogBackend)
			syslogLeveled.SetLevel(level, "")
			backends = append(backends, syslogLeveled)
		}
	}

	logging.SetBackend(backends...)
	return logger
}
