package state

import (
	"context"
	"log"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/charmap"
)

func TestEnvFromContext(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil || env.start.IsZero() {
		t.Fatalf("environment is not initialized: %+v", env)
	}
	if EnvFromContext(ctx) != env {
		t.Error("environment must be shared by every caller holding the context")
	}
	if env.Uptime() < 0 {
		t.Errorf("Uptime = %v", env.Uptime())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for context without environment")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	env := &LocalEnv{Log: zap.New(core), start: time.Now()}

	for i := range 2 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Fatalf("cycle %d: standard logger was not redirected", i)
		}
		log.Print("from standard logger")
		env.RestoreStdLog()
	}

	if got := logs.FilterMessage("from standard logger").Len(); got != 2 {
		t.Errorf("redirected messages = %d, want 2", got)
	}

	// no logger, nothing to redirect to
	bare := &LocalEnv{}
	bare.RedirectStdLog()
	if bare.restoreStdLog != nil {
		t.Error("redirect without logger must be a no-op")
	}
	bare.RestoreStdLog()
}

func TestLocalEnv_SetDefaultEncoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		isNil   bool
		wantErr bool
	}{
		{"empty resets to utf-8", "", "utf-8", true, false},
		{"blank resets to utf-8", "  ", "utf-8", true, false},
		{"windows code page", "windows-1251", "windows-1251", false, false},
		{"alias resolves to registered name", "latin1", "ISO_8859-1:1987", false, false},
		{"unknown", "no-such-charset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newLocalEnv()
			env.DefaultEncoding = charmap.Windows1252
			if tt.wantErr {
				env.DefaultEncoding = nil
			}

			got, err := env.SetDefaultEncoding(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDefaultEncoding() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SetDefaultEncoding() = %q, want %q", got, tt.want)
			}
			if (env.DefaultEncoding == nil) != tt.isNil {
				t.Errorf("DefaultEncoding = %v", env.DefaultEncoding)
			}
		})
	}
}
