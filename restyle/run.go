// Package restyle computes styles of HTML documents and writes them out as
// text reports.
package restyle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"servosel/archive"
	"servosel/css"
	"servosel/dom"
	"servosel/elementstate"
	"servosel/report"
	"servosel/selectorimpl"
	"servosel/state"
)

// documentExts lists extensions of documents picked up from directories
// and archives.
var documentExts = []string{".html", ".htm", ".xhtml"}

// NOTE: must match media_type validation in configuration
var mediaTypes = []string{"all", "screen", "print", "speech"}

// request is everything needed to restyle a single document.
type request struct {
	authorFiles []string
	author      []*selectorimpl.Stylesheet
	selector    string
	states      map[string]elementstate.ElementState
	mediaType   string
	quirksMode  bool
	encoding    string
	template    string
	dst         string
	overwrite   bool
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("restyle")

	if cmd.NArg() == 0 {
		return errors.New("no input source has been specified")
	}

	req := &request{
		selector:   cmd.String("select"),
		mediaType:  env.Cfg.Style.MediaType,
		quirksMode: env.Cfg.Style.QuirksMode || cmd.Bool("quirks"),
		encoding:   env.Cfg.Style.Encoding,
		template:   env.Cfg.Style.ReportTemplate,
		overwrite:  cmd.Bool("overwrite"),
	}
	if media := cmd.String("media"); len(media) > 0 {
		if !slices.Contains(mediaTypes, media) {
			return fmt.Errorf("unsupported media type '%s', expected one of %s", media, strings.Join(mediaTypes, ", "))
		}
		req.mediaType = media
	}
	if enc := cmd.String("encoding"); len(enc) > 0 {
		req.encoding = enc
	}
	if fname := cmd.String("template"); len(fname) > 0 {
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("unable to read report template from %q: %w", fname, err)
		}
		req.template = string(data)
		env.Rpt.Store("template/"+filepath.Base(fname), fname)
	}
	if req.states, err = parseStates(cmd.StringSlice("state")); err != nil {
		return err
	}
	if dst := cmd.String("out"); len(dst) > 0 {
		if req.dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}

	parser := css.NewParser[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass](selectorimpl.ServoSelectorImpl{}, log)
	for _, fname := range cmd.StringSlice("css") {
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("unable to read author stylesheet from %q: %w", fname, err)
		}
		req.authorFiles = append(req.authorFiles, fname)
		req.author = append(req.author, parser.Parse(data, css.OriginAuthor, fname))
		env.Rpt.Store("stylesheets/"+filepath.Base(fname), fname)
	}

	log.Info("Processing starting",
		zap.Strings("sources", cmd.Args().Slice()), zap.String("destination", req.dst), zap.String("media", req.mediaType), zap.Bool("quirks", req.quirksMode))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	for _, src := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if er := process(ctx, src, req, os.Stdout, log); er != nil {
			log.Error("Unable to process source", zap.String("source", src), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("%s: %w", src, er))
		}
	}
	return err
}

// parseStates parses "id=flag|flag" specifications.
func parseStates(args []string) (map[string]elementstate.ElementState, error) {
	states := make(map[string]elementstate.ElementState, len(args))
	for _, arg := range args {
		id, names, ok := strings.Cut(arg, "=")
		if !ok || len(id) == 0 {
			return nil, fmt.Errorf("malformed element state '%s', expected ID=FLAG[|FLAG]", arg)
		}
		var s elementstate.ElementState
		for name := range strings.SplitSeq(names, "|") {
			flag, ok := elementstate.Parse(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("unknown element state flag '%s' for '%s'", name, id)
			}
			s = s.Insert(flag)
		}
		states[id] = states[id].Insert(s)
	}
	return states, nil
}

// process handles a single file, walks a directory or an archive. Path
// inside an archive may follow the archive name to limit processed
// documents. Reports go to stdout when no destination directory was
// requested.
func process(ctx context.Context, src string, req *request, stdout io.Writer, log *zap.Logger) error {
	var head, tail string
	for head = filepath.Clean(src); len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}
		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist - probably path in archive
			continue
		}

		if fi.IsDir() {
			if len(tail) != 0 {
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return processDir(ctx, head, req, stdout, log)
		}
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s)", head)
		}

		isArchive, err := archive.IsArchive(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(filepath.Clean(src), head), string(filepath.Separator)))
			return processArchive(ctx, head, pathIn, "", req, stdout, log)
		}
		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		return processFile(ctx, head, filepath.Base(head), req, stdout, log)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree processing documents and archives.
func processDir(ctx context.Context, dir string, req *request, stdout io.Writer, log *zap.Logger) error {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)

		if slices.Contains(documentExts, strings.ToLower(filepath.Ext(path))) {
			count++
			if err := processFile(ctx, path, rel, req, stdout, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		isArchive, err := archive.IsArchive(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isArchive {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}
		count++
		if err := processArchive(ctx, path, "", rel, req, stdout, log); err != nil {
			log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	if err == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return err
}

// processArchive restyles documents inside archive under "pathIn". Reports
// are named after "pathOut" followed by the path inside archive.
func processArchive(ctx context.Context, path, pathIn, pathOut string, req *request, stdout io.Writer, log *zap.Logger) error {
	if len(pathOut) == 0 {
		pathOut = filepath.Base(path)
	}
	env := state.EnvFromContext(ctx)
	env.Rpt.Store("sources/"+filepath.ToSlash(pathOut), path)

	count := 0
	err := archive.Walk(path, pathIn, documentExts, func(name string, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		rel := filepath.Join(pathOut, filepath.FromSlash(name))
		if err := processDocument(ctx, r, rel, req, stdout, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", path), zap.String("file", name), zap.Error(err))
		}
		return nil
	})
	if err == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

// processFile restyles single document file. "rel" is the source path
// relative to the requested source, used to name the report.
func processFile(ctx context.Context, path, rel string, req *request, stdout io.Writer, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	state.EnvFromContext(ctx).Rpt.Store("sources/"+filepath.ToSlash(rel), path)
	return processDocument(ctx, file, rel, req, stdout, log)
}

func processDocument(ctx context.Context, r io.Reader, rel string, req *request, stdout io.Writer, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Restyle starting", zap.String("from", rel))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Restyle ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("restyle panic: %v", r)
		} else if rerr == nil {
			log.Info("Restyle completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	var (
		doc *dom.Document
		err error
	)
	if len(req.encoding) > 0 {
		doc, err = dom.ParseWithEncoding(r, req.encoding)
	} else {
		doc, err = dom.Parse(r, "")
	}
	if err != nil {
		return fmt.Errorf("unable to parse document: %w", err)
	}

	rpt, err := restyle(doc, rel, req, env.NewStylist(), log)
	if err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("trees/"+filepath.ToSlash(rel)+reportExt, []byte(doc.Dump()))
	}

	if len(req.dst) == 0 {
		outputName = "STDOUT"
		return report.Render(stdout, req.template, rpt)
	}

	outputName = buildOutputPath(rel, req.dst)
	if _, err := os.Stat(outputName); err == nil {
		if !req.overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create report file: %w", err)
	}
	if err := report.Render(out, req.template, rpt); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	env.Rpt.Store("results/"+filepath.ToSlash(rel)+reportExt, outputName)
	return nil
}

// restyle cascades the document with its own <style> sheets following
// stylesheets from the command line and applies requested element states.
func restyle(doc *dom.Document, src string, req *request, st *state.Stylist, log *zap.Logger) (*report.Document, error) {
	parser := css.NewParser[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass](selectorimpl.ServoSelectorImpl{}, log)

	author := slices.Clone(req.author)
	names := slices.Clone(req.authorFiles)
	for i, text := range doc.StyleSheets() {
		name := fmt.Sprintf("%s <style> #%d", src, i+1)
		author = append(author, parser.Parse([]byte(text), css.OriginAuthor, name))
		names = append(names, name)
	}
	st.Update(author, req.quirksMode, req.mediaType)

	var warnings []string
	for _, sheet := range author {
		warnings = append(warnings, sheet.Warnings...)
	}

	if len(req.states) > 0 {
		found := make(map[string]bool, len(req.states))
		for _, el := range doc.Elements() {
			s, ok := req.states[el.ID()]
			if !ok || found[el.ID()] {
				continue
			}
			found[el.ID()] = true
			prev := doc.SetState(el, doc.State(el).Insert(s))
			log.Debug("Element state changed",
				zap.Stringer("element", el), zap.Stringer("from", prev), zap.Stringer("to", doc.State(el)),
				zap.Bool("restyle", st.RestyleNeeded(prev, doc.State(el))))
		}
		for id := range req.states {
			if !found[id] {
				log.Warn("Element not found, state ignored", zap.String("id", id))
			}
		}
	}

	return report.Collect(doc, st, report.Options{
		Source:      src,
		Selector:    req.selector,
		Stylesheets: names,
		Warnings:    warnings,
	})
}
