package log

import (
	"fmt"
	"strings"
	"sync"
)

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider
)

// SetProvider replaces the package-wide provider used by GetLogger.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

func provider() LoggerProvider {
	providerMu.RLock()
	p := defaultProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if defaultProvider == nil {
		defaultProvider = NewZerologProvider(LevelInfo)
	}
	return defaultProvider
}

// GetLogger returns the default logger of the package-wide provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a component logger from the package-wide provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ToLogLevel is ParseLevel for trusted input; it panics on an unknown name.
func ToLogLevel(level string) Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err)
	}
	return l
}

const (
	// ErrAttrKey is the field name errors are logged under.
	ErrAttrKey = "error"
)
