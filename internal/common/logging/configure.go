package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

const (
	logLevelEnvVar  = "LOG_LEVEL"
	logFormatEnvVar = "LOG_FORMAT"
)

// ConfigureLogging sets up the global logrus logger for command line use.
// The level is read from LOG_LEVEL (default info) and the format from
// LOG_FORMAT (text or json, default text).
func ConfigureLogging() {
	log.SetOutput(os.Stdout)

	if format, ok := os.LookupEnv(logFormatEnvVar); ok && format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	}

	if levelStr, ok := os.LookupEnv(logLevelEnvVar); ok {
		if level, err := log.ParseLevel(levelStr); err == nil {
			log.SetLevel(level)
		}
	}
}
