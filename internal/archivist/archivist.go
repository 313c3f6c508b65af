// Package archivist is the leveled logger shared by the engine, the CLI
// and the HTTP server.
package archivist

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	LEVEL_DEBUG   = 1
	LEVEL_INFO    = 2
	LEVEL_WARNING = 3
	LEVEL_ERROR   = 4
	LEVEL_FATAL   = 5
)

// Constants for granular debug levels
const (
	DEBUG_LEVEL_TRACE  = iota + 1 // For tracing execution flow
	DEBUG_LEVEL_INFO              // For informational debug messages
	DEBUG_LEVEL_DETAIL            // For more detailed output
	DEBUG_LEVEL_DUMP              // For dumping entire data structures
	DEBUG_LEVEL_MAX               // The highest, most detailed level
)

var levelNames = map[string]int{
	"debug":   LEVEL_DEBUG,
	"info":    LEVEL_INFO,
	"warning": LEVEL_WARNING,
	"warn":    LEVEL_WARNING,
	"error":   LEVEL_ERROR,
	"fatal":   LEVEL_FATAL,
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Println(v ...interface{})
}

type Archivist struct {
	mu         sync.RWMutex
	logFlags   [5]bool
	logger     Logger
	debugLevel int
}

type Config struct {
	Logger     Logger
	LogLevel   int
	DebugLevel int
}

func New(conf *Config) *Archivist {
	a := &Archivist{logFlags: [5]bool{false, true, true, true, true}}
	if conf == nil {
		conf = &Config{}
	}
	a.SetLogger(conf.Logger)
	a.SetLogLevel(conf.LogLevel)
	if conf.LogLevel == LEVEL_DEBUG {
		a.SetDebugLevel(conf.DebugLevel)
	}
	return a
}

// Discard returns an archivist that drops every message.
func Discard() *Archivist {
	return New(&Config{Logger: log.New(io.Discard, "", 0), LogLevel: LEVEL_FATAL})
}

// ParseLevel maps a level name such as "info" to its constant.
func ParseLevel(name string) (int, error) {
	if name == "" {
		return LEVEL_WARNING, nil
	}
	level, ok := levelNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("archivist: unknown log level %q", name)
	}
	return level, nil
}

func (a *Archivist) enabled(level int) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logFlags[level-1]
}

func (a *Archivist) store(stype, message string, formatted bool, params []interface{}) {
	_, file, line, _ := runtime.Caller(3)
	packageFile := file[strings.LastIndex(file, "/")+1:]

	logLine := time.Now().Format("2006-01-02 15:04:05") + "|" + stype + "|" + packageFile + "#" + strconv.Itoa(line) + "|"
	switch {
	case formatted:
		logLine += fmt.Sprintf(message, params...)
	case len(params) > 0:
		logLine += message + "|" + fmt.Sprintf("%+v", params)
	default:
		logLine += message
	}

	a.mu.RLock()
	logger := a.logger
	a.mu.RUnlock()
	logger.Println(logLine)
}

func (a *Archivist) emit(level int, stype, message string, formatted bool, params []interface{}) {
	if a.enabled(level) {
		a.store(stype, message, formatted, params)
	}
}

func (a *Archivist) Error(message string, params ...interface{}) {
	a.emit(LEVEL_ERROR, "error", message, false, params)
}

func (a *Archivist) ErrorF(message string, params ...interface{}) {
	a.emit(LEVEL_ERROR, "error", message, true, params)
}

// Fatal logs and does not exit; callers decide how to terminate.
func (a *Archivist) Fatal(message string, params ...interface{}) {
	a.emit(LEVEL_FATAL, "fatal", message, false, params)
}

func (a *Archivist) Info(message string, params ...interface{}) {
	a.emit(LEVEL_INFO, "info", message, false, params)
}

func (a *Archivist) InfoF(message string, params ...interface{}) {
	a.emit(LEVEL_INFO, "info", message, true, params)
}

func (a *Archivist) Warning(message string, params ...interface{}) {
	a.emit(LEVEL_WARNING, "warning", message, false, params)
}

func (a *Archivist) WarningF(message string, params ...interface{}) {
	a.emit(LEVEL_WARNING, "warning", message, true, params)
}

func (a *Archivist) Debug(level int, message string, params ...interface{}) {
	a.emitDebug(level, message, false, params)
}

func (a *Archivist) DebugF(level int, message string, params ...interface{}) {
	a.emitDebug(level, message, true, params)
}

func (a *Archivist) emitDebug(level int, message string, formatted bool, params []interface{}) {
	a.mu.RLock()
	on := a.logFlags[LEVEL_DEBUG-1] && level <= a.debugLevel
	a.mu.RUnlock()
	if on {
		a.store("debug", message, formatted, params)
	}
}

// SetLogLevel enables level and everything above it. Zero selects
// LEVEL_WARNING; unknown levels fall back to it with an error message.
func (a *Archivist) SetLogLevel(logLevel int) {
	if logLevel == 0 {
		logLevel = LEVEL_WARNING
	}
	if logLevel < LEVEL_DEBUG || logLevel > LEVEL_FATAL {
		a.Error("unknown log level, defaulting to LEVEL_WARNING", logLevel)
		logLevel = LEVEL_WARNING
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for index := range a.logFlags {
		a.logFlags[index] = logLevel-1 <= index
	}
}

func (a *Archivist) SetDebugLevel(level int) {
	if level < 0 {
		level = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debugLevel = level
}

// SetLogger replaces the output. A nil logger writes to stdout.
func (a *Archivist) SetLogger(logger Logger) {
	if logger == nil {
		logger = log.New(os.Stdout, "", 0)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = logger
}
