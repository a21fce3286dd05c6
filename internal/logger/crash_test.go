package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCrashHandler_SetContext(t *testing.T) {
	// Reset global context
	globalContext = &CrashContext{}

	SetBasePath("/tmp/test-advisor")
	SetVersion("1.0.0-test")
	SetCommand("serve")
	SetLastQuestion("  how to grow tomatoes  ")
	SetLastPrompt("test prompt")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if globalContext.basePath != "/tmp/test-advisor" {
		t.Errorf("Expected basePath '/tmp/test-advisor', got '%s'", globalContext.basePath)
	}
	if globalContext.version != "1.0.0-test" {
		t.Errorf("Expected version '1.0.0-test', got '%s'", globalContext.version)
	}
	if globalContext.command != "serve" {
		t.Errorf("Expected command 'serve', got '%s'", globalContext.command)
	}
	if globalContext.lastQuestion != "how to grow tomatoes" {
		t.Errorf("Expected trimmed question, got '%s'", globalContext.lastQuestion)
	}
	if globalContext.lastPrompt != "test prompt" {
		t.Errorf("Expected lastPrompt 'test prompt', got '%s'", globalContext.lastPrompt)
	}
}

func TestCrashHandler_SetLastPrompt_Truncation(t *testing.T) {
	globalContext = &CrashContext{}

	SetLastPrompt(strings.Repeat("a", 3000))

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if len(globalContext.lastPrompt) > 2100 {
		t.Errorf("Expected prompt to be truncated, got length %d", len(globalContext.lastPrompt))
	}
	if !strings.Contains(globalContext.lastPrompt, "[truncated]") {
		t.Error("Expected truncated prompt to contain '[truncated]'")
	}
}

func TestCrashHandler_CreateCrashLog(t *testing.T) {
	globalContext = &CrashContext{
		version:      "1.0.0",
		command:      "ask",
		lastQuestion: "why are my leaves yellow",
	}

	log := createCrashLog("test panic")

	if log.PanicValue != "test panic" {
		t.Errorf("Expected PanicValue 'test panic', got '%s'", log.PanicValue)
	}
	if log.Command != "ask" {
		t.Errorf("Expected Command 'ask', got '%s'", log.Command)
	}
	if log.LastQuestion != "why are my leaves yellow" {
		t.Errorf("Expected LastQuestion, got '%s'", log.LastQuestion)
	}
	if log.StackTrace == "" {
		t.Error("Expected non-empty StackTrace")
	}
	if log.GoVersion == "" {
		t.Error("Expected non-empty GoVersion")
	}
}

func TestCrashHandler_WriteAndReadCrashLog(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), ".advisor")
	globalContext = &CrashContext{basePath: basePath}

	log := CrashLog{
		Timestamp:  time.Now().UTC(),
		Version:    "1.0.0",
		Command:    "serve",
		PanicValue: "test panic",
		StackTrace: "test stack",
	}

	path, err := writeCrashLog(log)
	if err != nil {
		t.Fatalf("writeCrashLog failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(basePath, CrashLogDir) {
		t.Errorf("Unexpected crash log location %s", path)
	}

	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 crash log, got %d", len(logs))
	}

	got, err := ReadCrashLog(logs[0])
	if err != nil {
		t.Fatalf("ReadCrashLog failed: %v", err)
	}
	if got.PanicValue != "test panic" || got.Command != "serve" {
		t.Errorf("Unexpected crash log content: %+v", got)
	}
}

func TestCrashHandler_CleanOldLogs(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), ".advisor")
	crashDir := filepath.Join(basePath, CrashLogDir)
	if err := os.MkdirAll(crashDir, 0755); err != nil {
		t.Fatalf("Failed to create crash dir: %v", err)
	}
	globalContext = &CrashContext{basePath: basePath}

	for i := range MaxCrashLogs + 5 {
		name := filepath.Join(crashDir, fmt.Sprintf("crash_20250101_1200%02d.000.json", i))
		if err := os.WriteFile(name, []byte("{}"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	// Unrelated files are left alone.
	if err := os.WriteFile(filepath.Join(crashDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := cleanOldCrashLogs(crashDir); err != nil {
		t.Fatalf("cleanOldCrashLogs failed: %v", err)
	}

	logs, _ := ListCrashLogs()
	if len(logs) != MaxCrashLogs {
		t.Errorf("Expected %d logs after cleanup, got %d", MaxCrashLogs, len(logs))
	}
	if !strings.HasSuffix(logs[0], "crash_20250101_120005.000.json") {
		t.Errorf("Expected oldest logs removed, first remaining is %s", logs[0])
	}
	if _, err := os.Stat(filepath.Join(crashDir, "notes.txt")); err != nil {
		t.Error("Expected unrelated file to survive cleanup")
	}
}
