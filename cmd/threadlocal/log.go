package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// initLogger sets up Apex with a custom handler and a log level from the
// THREADLOCAL_LOG env variable.
func initLogger() {
	level := strings.ToUpper(os.Getenv("THREADLOCAL_LOG"))
	if level == "" {
		level = "INFO"
	}
	log.SetHandler(&customHandler{})
	log.SetLevelFromString(level)
}

// customHandler formats log messages and writes to stderr.
type customHandler struct{}

// HandleLog implements the log.Handler interface.
func (h *customHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(os.Stderr, "%s %.1s %s\n", timestamp, level, e.Message)
	return nil
}
