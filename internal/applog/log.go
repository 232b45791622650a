// Package applog provides the leveled logger used across the vocabulary,
// scoring and database packages.
package applog

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Level represents a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel = LevelInfo
	logger       = log.New(os.Stdout, "", log.LstdFlags)
)

// SetLevel sets the minimum level that will be emitted.
func SetLevel(level Level) {
	currentLevel = level
}

// SetLevelName sets the minimum level from its string name, ignoring
// unrecognized values.
func SetLevelName(name string) {
	switch name {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// Info logs an informational message.
func Info(message string, fields map[string]interface{}) {
	if currentLevel <= LevelInfo {
		logMessage("INFO", message, fields)
	}
}

// Debug logs a debug message.
func Debug(message string, fields map[string]interface{}) {
	if currentLevel <= LevelDebug {
		logMessage("DEBUG", message, fields)
	}
}

// Warn logs a warning message.
func Warn(message string, fields map[string]interface{}) {
	if currentLevel <= LevelWarn {
		logMessage("WARN", message, fields)
	}
}

// Error logs an error message.
func Error(message string, fields map[string]interface{}) {
	if currentLevel <= LevelError {
		logMessage("ERROR", message, fields)
	}
}

func logMessage(level, message string, fields map[string]interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	if len(fields) > 0 {
		line += fmt.Sprintf(" %v", fields)
	}
	logger.Println(line)
}

// Timer starts a named timer and returns a function that logs the elapsed
// duration when called. Typical use wraps a vocabulary build or a query:
//
//	stop := applog.Timer("vocabulary.create")
//	defer stop()
func Timer(name string) func() {
	start := time.Now()
	return func() {
		Info(fmt.Sprintf("timer: %s", name), map[string]interface{}{
			"elapsed": time.Since(start).String(),
		})
	}
}

// Progress logs progress through a bounded operation, such as clustering
// a node's descriptors or scanning posting lists during a query.
func Progress(operation string, current, total int) {
	var pct float64
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	Debug(fmt.Sprintf("progress: %s", operation), map[string]interface{}{
		"current": current,
		"total":   total,
		"pct":     fmt.Sprintf("%.1f%%", pct),
	})
}
