package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"servosel/config"
	"servosel/selectorimpl"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if EnvFromContext(ctx) != env {
		t.Error("EnvFromContext() returned a different environment")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Error("Expected restoreStdLog to be set")
		}
		env.RestoreStdLog()
	})

	t.Run("without logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("restoreStdLog set without logger")
		}
		env.RestoreStdLog()
	})
}

func TestLocalEnv_ConfigureStylesheets(t *testing.T) {
	env := &LocalEnv{Log: zaptest.NewLogger(t)}
	if err := env.ConfigureStylesheets(); err == nil {
		t.Error("expected error without configuration")
	}

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	env.Cfg = cfg
	if err := env.ConfigureStylesheets(); err != nil {
		t.Fatalf("ConfigureStylesheets() error = %v", err)
	}

	// tables are built on first use, afterwards configuration is rejected
	st := env.NewStylist()
	st.Update(nil, false, cfg.Style.MediaType)
	if st.Stats().ElementRules == 0 {
		t.Error("no user-agent rules")
	}
	if err := env.ConfigureStylesheets(); !errors.Is(err, selectorimpl.ErrAlreadyBuilt) {
		t.Errorf("ConfigureStylesheets() after build = %v, want ErrAlreadyBuilt", err)
	}
}
