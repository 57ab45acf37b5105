package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu           sync.RWMutex
	debugEnabled = false
	debugLogger  = log.New(io.Discard, "", 0)
	infoLogger   = log.New(io.Discard, "", 0)
	warnLogger   = log.New(io.Discard, "", 0)
	errorLogger  = log.New(io.Discard, "", 0)
)

// Init directs all levels to w. Until Init is called nothing is written.
func Init(w io.Writer, debug bool) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	debugEnabled = debug
	debugLogger = log.New(w, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger = log.New(w, "INFO: ", log.Ldate|log.Ltime)
	warnLogger = log.New(w, "WARN: ", log.Ldate|log.Ltime)
	errorLogger = log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// Debug logs a debug message if debug mode is enabled
func Debug(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if debugEnabled {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	infoLogger.Output(2, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	warnLogger.Output(2, fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	errorLogger.Output(2, fmt.Sprintf(format, v...))
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugEnabled
}
