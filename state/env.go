// Package state defines shared program state.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"servosel/config"
	"servosel/selectorimpl"
	"servosel/style"
)

type envKey struct{}

// Stylist is the stylist for the engine vocabulary.
type Stylist = style.Stylist[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass]

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// ConfigureStylesheets hands logger and user stylesheets from configuration
// to the process-wide stylesheet tables. Configured user stylesheets are
// stored in the debug report.
func (e *LocalEnv) ConfigureStylesheets() error {
	if e.Cfg == nil {
		return errors.New("configuration is not loaded")
	}
	paths, err := e.Cfg.Style.ExpandUserStylesheets()
	if err != nil {
		return fmt.Errorf("unable to resolve user stylesheets: %w", err)
	}
	for i, path := range paths {
		e.Rpt.Store(fmt.Sprintf("stylesheets/user-%d.css", i), path)
	}
	if err := selectorimpl.Configure(selectorimpl.Options{Log: e.Log, UserStylesheets: paths}); err != nil {
		return fmt.Errorf("unable to configure stylesheets: %w", err)
	}
	return nil
}

// NewStylist returns a stylist logging to the program log.
func (e *LocalEnv) NewStylist() *Stylist {
	return style.NewStylist[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass](selectorimpl.ServoSelectorImpl{}, e.Log)
}
