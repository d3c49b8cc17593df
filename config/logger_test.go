package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelEnabler(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
		ok    bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"normal", zapcore.InfoLevel, true},
		{"none", zapcore.InvalidLevel, false},
		{"", zapcore.InvalidLevel, false},
	}
	for _, tt := range tests {
		got, ok := levelEnabler(tt.level)
		if got != tt.want || ok != tt.ok {
			t.Errorf("levelEnabler(%q) = %v, %v, want %v, %v", tt.level, got, ok, tt.want, tt.ok)
		}
	}
}

func prepareFileLogger(t *testing.T, level, mode string) (*zap.Logger, string) {
	t.Helper()
	t.Cleanup(func() { _ = debug.SetCrashOutput(nil, debug.CrashOptions{}) })

	dest := filepath.Join(t.TempDir(), "fsp.log")
	conf := LoggingConfig{
		FileLogger:    LoggerConfig{Level: level, Destination: dest, Mode: mode},
		ConsoleLogger: LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return log, dest
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	return string(data)
}

func TestLoggingConfig_PrepareFile(t *testing.T) {
	log, dest := prepareFileLogger(t, "normal", "overwrite")

	log.Debug("hidden debug message")
	log.Info("visible info message", zap.String("file", "main.css"))
	_ = log.Sync()

	content := readLog(t, dest)
	if !strings.Contains(content, "visible info message") || !strings.Contains(content, "main.css") {
		t.Errorf("log does not contain info message: %q", content)
	}
	if strings.Contains(content, "hidden debug message") {
		t.Error("debug message must not be written at normal level")
	}
	if !strings.Contains(content, "fsp") {
		t.Errorf("logger is not named after the program: %q", content)
	}

	panicLog := filepath.Join(filepath.Dir(dest), "fsp-panic.log")
	if _, err := os.Stat(panicLog); err != nil {
		t.Errorf("panic log was not created: %v", err)
	}
}

func TestLoggingConfig_PrepareAppend(t *testing.T) {
	log, dest := prepareFileLogger(t, "debug", "append")
	log.Debug("first run")
	_ = log.Sync()

	conf := LoggingConfig{
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "append"},
		ConsoleLogger: LoggerConfig{Level: "none"},
	}
	second, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	second.Debug("second run")
	_ = second.Sync()

	content := readLog(t, dest)
	if !strings.Contains(content, "first run") || !strings.Contains(content, "second run") {
		t.Errorf("append mode lost messages: %q", content)
	}
}

func TestLoggingConfig_PrepareNone(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "fsp.log")
	conf := LoggingConfig{
		FileLogger:    LoggerConfig{Level: "none", Destination: dest},
		ConsoleLogger: LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	log.Error("nowhere")
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("log file must not be created when file logging is off, stat: %v", err)
	}
}

// verboseError formats itself differently with %+v, zap reports that as
// errorVerbose.
type verboseError struct{}

func (verboseError) Error() string { return "short message" }

func (e verboseError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = io.WriteString(s, "short message\nstack details")
		return
	}
	_, _ = io.WriteString(s, e.Error())
}

func TestConciseEncoder(t *testing.T) {
	ec := zap.NewDevelopmentEncoderConfig()
	ent := zapcore.Entry{Level: zapcore.ErrorLevel, Time: time.Now(), Message: "failed"}
	fields := []zapcore.Field{zap.Error(verboseError{})}

	full, err := zapcore.NewConsoleEncoder(ec).EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if !strings.Contains(full.String(), "stack details") {
		t.Fatalf("regular encoder is expected to include verbose error: %q", full.String())
	}

	short, err := newConciseEncoder(ec).EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if strings.Contains(short.String(), "stack details") || !strings.Contains(short.String(), "short message") {
		t.Errorf("unexpected concise output: %q", short.String())
	}
}

func TestLoggingConfig_PanicLogName(t *testing.T) {
	conf := LoggingConfig{FileLogger: LoggerConfig{Destination: filepath.Join("logs", "fsp.log")}}
	if got, want := conf.PanicLogName(), filepath.Join("logs", "fsp-panic.log"); got != want {
		t.Errorf("PanicLogName = %q, want %q", got, want)
	}
}
