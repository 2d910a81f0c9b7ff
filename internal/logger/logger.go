// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config value to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes to stdout and an optional file, and fans every line out to
// subscribers such as the browser log stream
type Logger struct {
	file   *os.File
	logger *log.Logger

	mu     sync.RWMutex
	level  Level
	closed bool

	subMu       sync.RWMutex
	subscribers map[chan string]struct{}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// New creates a logger. An empty logFile logs to stdout only.
func New(logFile string) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	return &Logger{
		file:        file,
		logger:      log.New(out, "", log.LstdFlags|log.Lshortfile),
		level:       LevelInfo,
		subscribers: make(map[chan string]struct{}),
	}, nil
}

// Init creates a logger and installs it as the package default
func Init(logFile string) (*Logger, error) {
	l, err := New(logFile)
	if err != nil {
		return nil, err
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return l, nil
}

// GetDefault returns the package logger, falling back to stdout when Init was
// never called or the default was closed
func GetDefault() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil && !l.isClosed() {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil || defaultLogger.isClosed() {
		defaultLogger, _ = New("")
	}
	return defaultLogger
}

func (l *Logger) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// SetLevel drops messages below level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Subscribe returns a channel receiving every formatted line and a function
// that unsubscribes and closes it. Slow subscribers miss lines.
func (l *Logger) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			if _, ok := l.subscribers[ch]; ok {
				delete(l.subscribers, ch)
				close(ch)
			}
			l.subMu.Unlock()
		})
	}
}

func (l *Logger) publish(line string) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for ch := range l.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

func (l *Logger) logMessage(level Level, format string, v ...interface{}) {
	l.mu.RLock()
	skip := l.closed || level < l.level
	l.mu.RUnlock()
	if skip {
		return
	}

	line := fmt.Sprintf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, v...))
	l.logger.Output(3, line)
	l.publish(line)
}

// Printf logs at INFO level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logMessage(LevelInfo, format, v...)
}

// Warnf logs at WARN level
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logMessage(LevelWarn, format, v...)
}

// Errorf logs at ERROR level
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logMessage(LevelError, format, v...)
}

// Debugf logs at DEBUG level
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logMessage(LevelDebug, format, v...)
}

// Fatalf logs at ERROR level and exits
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logMessage(LevelError, "FATAL: "+format, v...)
	os.Exit(1)
}

// Close closes the log file and every subscriber channel
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.subMu.Lock()
	for ch := range l.subscribers {
		close(ch)
	}
	l.subscribers = make(map[chan string]struct{})
	l.subMu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions
func Printf(format string, v ...interface{}) {
	GetDefault().Printf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	GetDefault().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	GetDefault().Errorf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	GetDefault().Debugf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	GetDefault().Fatalf(format, v...)
}
