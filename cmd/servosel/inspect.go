package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"servosel/css"
	"servosel/selectorimpl"
	"servosel/state"
)

func listPseudo(_ context.Context, _ *cli.Command) error {
	return writePseudo(os.Stdout)
}

// writePseudo prints the pseudo-element and pseudo-class vocabulary.
func writePseudo(w io.Writer) error {
	impl := selectorimpl.ServoSelectorImpl{}

	var sb strings.Builder
	sb.WriteString("PSEUDO-ELEMENTS\n")
	impl.EachPseudoElement(func(pe selectorimpl.PseudoElement) {
		cascade := "eager"
		if !impl.IsEagerlyCascadedPseudoElement(pe) {
			cascade = "precomputed"
		}
		fmt.Fprintf(&sb, "  ::%-24s %-12s%s\n", pe, cascade, uaOnly(pe.IsUserAgentOnly()))
	})
	sb.WriteString("\nPSEUDO-CLASSES\n")
	for _, pc := range selectorimpl.NonTSPseudoClasses() {
		fmt.Fprintf(&sb, "  :%-25s %-12s%s\n", pc, impl.PseudoClassStateFlag(pc), uaOnly(pc.IsUserAgentOnly()))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func uaOnly(ua bool) string {
	if ua {
		return "user-agent only"
	}
	return ""
}

func dumpSheets(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("sheets")

	impl := selectorimpl.ServoSelectorImpl{}
	sheets := impl.UserOrUserAgentStylesheets()
	if cmd.Bool("quirks") || env.Cfg.Style.QuirksMode {
		sheets = append(sheets[:len(sheets):len(sheets)], impl.QuirksModeStylesheet())
	}

	parser := css.NewParser[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass](impl, log)
	for _, fname := range cmd.Args().Slice() {
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("unable to read author stylesheet from %q: %w", fname, err)
		}
		sheets = append(sheets, parser.Parse(data, css.OriginAuthor, fname))
	}

	out := os.Stdout
	for _, sheet := range sheets {
		for _, warning := range sheet.Warnings {
			log.Warn("Stylesheet problem", zap.String("source", sheet.Source), zap.String("warning", warning))
		}
		if _, err := fmt.Fprintf(out, "/* %s: %s, %d rules */\n", sheet.Origin, sheet.Source, sheet.RuleCount()); err != nil {
			return err
		}
		if _, err := sheet.WriteTo(out); err != nil {
			return fmt.Errorf("unable to write stylesheet '%s': %w", sheet.Source, err)
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
	}
	return nil
}
