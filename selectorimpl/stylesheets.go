package selectorimpl

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"servosel/css"
	"servosel/resources"
)

// ErrAlreadyBuilt is returned by Configure once stylesheet tables exist.
var ErrAlreadyBuilt = errors.New("stylesheet tables are already built")

// Options control construction of the process-wide stylesheet tables.
type Options struct {
	Log *zap.Logger
	// UserStylesheets are paths to stylesheets with user origin, appended
	// after the built-in user-agent stylesheets.
	UserStylesheets []string
}

var defaultTables = newTables(func() Options { return Options{} })

// Configure sets options for stylesheet tables. It fails with
// ErrAlreadyBuilt once any table construction has started, so options
// either reach both tables or neither.
func Configure(opts Options) error {
	return defaultTables.configure(opts)
}

// tables builds each stylesheet table exactly once, on first use.
type tables struct {
	mu      sync.Mutex
	options func() Options // guarded by mu
	built   bool           // guarded by mu
	builds  atomic.Int32

	userOrUserAgent func() []*Stylesheet
	quirksMode      func() *Stylesheet
}

func newTables(options func() Options) *tables {
	t := &tables{options: options}
	t.userOrUserAgent = sync.OnceValue(t.buildUserOrUserAgent)
	t.quirksMode = sync.OnceValue(t.buildQuirksMode)
	return t
}

func (t *tables) configure(opts Options) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.built {
		return ErrAlreadyBuilt
	}
	t.options = func() Options { return opts }
	return nil
}

func (t *tables) isBuilt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.built
}

func (t *tables) prepare() (Options, *zap.Logger, *css.Parser[PseudoElement, NonTSPseudoClass]) {
	t.mu.Lock()
	t.built = true
	opts := t.options()
	t.mu.Unlock()
	t.builds.Add(1)

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("stylesheets")
	return opts, log, css.NewParser[PseudoElement, NonTSPseudoClass](ServoSelectorImpl{}, log)
}

func (t *tables) buildUserOrUserAgent() []*Stylesheet {
	opts, log, parser := t.prepare()

	sheets := make([]*Stylesheet, 0, len(resources.UserAgentStylesheets)+len(opts.UserStylesheets))
	for _, name := range resources.UserAgentStylesheets {
		sheets = append(sheets, parseBuiltin(parser, log, name))
	}
	for _, path := range opts.UserStylesheets {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to load user stylesheet, ignoring", zap.String("path", path), zap.Error(err))
			continue
		}
		sheet := parser.Parse(data, css.OriginUser, path)
		for _, w := range sheet.Warnings {
			log.Warn("User stylesheet problem", zap.String("path", path), zap.String("warning", w))
		}
		sheets = append(sheets, sheet)
	}
	log.Debug("User and user-agent stylesheets ready", zap.Int("count", len(sheets)))
	return sheets
}

func (t *tables) buildQuirksMode() *Stylesheet {
	_, log, parser := t.prepare()
	return parseBuiltin(parser, log, resources.QuirksModeCSS)
}

func parseBuiltin(parser *css.Parser[PseudoElement, NonTSPseudoClass], log *zap.Logger, name string) *Stylesheet {
	data, err := resources.Read(name)
	if err != nil {
		// this should never happen, built-in stylesheets are embedded
		panic(err)
	}
	sheet := parser.Parse(data, css.OriginUserAgent, name)
	for _, w := range sheet.Warnings {
		log.Warn("Built-in stylesheet problem", zap.String("name", name), zap.String("warning", w))
	}
	return sheet
}
