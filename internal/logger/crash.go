package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash logs relative to the data dir
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep
	MaxCrashLogs = 10

	// DefaultDataDir is used when no data dir was configured
	DefaultDataDir = ".advisor"
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu           sync.RWMutex
	lastQuestion string
	lastPrompt   string
	command      string
	version      string
	basePath     string
}

// globalContext is the singleton crash context.
var globalContext = &CrashContext{}

// SetBasePath sets the data directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastQuestion records the most recent question asked.
func SetLastQuestion(question string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastQuestion = truncateForLog(strings.TrimSpace(question), 500)
}

// SetLastPrompt records the most recent generation prompt.
func SetLastPrompt(prompt string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastPrompt = truncateForLog(prompt, 2000)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog is the JSON document written for each crash.
type CrashLog struct {
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Command      string    `json:"command"`
	PanicValue   string    `json:"panic_value"`
	StackTrace   string    `json:"stack_trace"`
	LastQuestion string    `json:"last_question,omitempty"`
	LastPrompt   string    `json:"last_prompt,omitempty"`
	GoVersion    string    `json:"go_version"`
	OS           string    `json:"os"`
	Arch         string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		log := createCrashLog(r)
		path, err := writeCrashLog(log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
			fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, log.StackTrace)
			os.Exit(2)
		}

		fmt.Fprintf(os.Stderr, "\nadvisor crashed unexpectedly: %v\n", r)
		fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
		os.Exit(2)
	}
}

func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:    time.Now().UTC(),
		Version:      globalContext.version,
		Command:      globalContext.command,
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		LastQuestion: globalContext.lastQuestion,
		LastPrompt:   globalContext.lastPrompt,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
	}
}

// writeCrashLog writes log to disk and returns its path.
func writeCrashLog(log CrashLog) (string, error) {
	dir := crashLogDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode crash log: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash_%s.json", log.Timestamp.Format("20060102_150405.000")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}
	return path, nil
}

func crashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = DefaultDataDir
	}
	return filepath.Join(basePath, CrashLogDir)
}

func isCrashLog(e os.DirEntry) bool {
	return !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".json")
}

// cleanOldCrashLogs keeps only the MaxCrashLogs most recent logs.
// os.ReadDir sorts by name, and names sort by timestamp.
func cleanOldCrashLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var logs []os.DirEntry
	for _, e := range entries {
		if isCrashLog(e) {
			logs = append(logs, e)
		}
	}
	if len(logs) <= MaxCrashLogs {
		return nil
	}

	for _, e := range logs[:len(logs)-MaxCrashLogs] {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", e.Name(), err)
		}
	}
	return nil
}

// ListCrashLogs returns the paths of all crash logs, oldest first.
func ListCrashLogs() ([]string, error) {
	dir := crashLogDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if isCrashLog(e) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	return logs, nil
}

// ReadCrashLog decodes a crash log file.
func ReadCrashLog(path string) (CrashLog, error) {
	var log CrashLog
	data, err := os.ReadFile(path)
	if err != nil {
		return log, err
	}
	err = json.Unmarshal(data, &log)
	return log, err
}
