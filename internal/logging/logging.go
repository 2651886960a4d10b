package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// New returns the process logger. Debug builds log at debug level.
func New(debug bool) *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return l
}
