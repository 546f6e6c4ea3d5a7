/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"reportbuilder/internal/config"
	"reportbuilder/internal/crash"
	"reportbuilder/internal/domain"
	"reportbuilder/internal/editor"
	"reportbuilder/internal/export"
	"reportbuilder/internal/idgen"
	"reportbuilder/internal/layout"
	applog "reportbuilder/internal/log"
	"reportbuilder/internal/session"
	"reportbuilder/internal/sharelink"
	"reportbuilder/internal/storage"
	"reportbuilder/internal/version"
)

func usage() {
	fmt.Println("Report Builder")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reportbuilder version|-v|--version                      Show version")
	fmt.Println("  reportbuilder new <file.json> [title]                     Create a document with one empty page")
	fmt.Println("  reportbuilder info <file.json>                            Print pages, blocks and rows")
	fmt.Println("  reportbuilder add <file.json> <page> <TYPE> [WIDTH] [below|beside <n>]")
	fmt.Println("                                                            Add a block (page and n are 1-based)")
	fmt.Println("  reportbuilder shell <file.json>                           Edit interactively with undo/redo")
	fmt.Println("  reportbuilder export-pdf <file.json> <out.pdf>            Layout proof as PDF")
	fmt.Println("  reportbuilder export-png <file.json> <dir>                One PNG per printable page")
	fmt.Println("  reportbuilder share <file.json> [ro]                      Print a share link")
	fmt.Println("  reportbuilder open-link <link> <out.json>                 Decode a share link into a file")
	fmt.Println("  reportbuilder save <file.json> <id>                       Store a document in the project store")
	fmt.Println("  reportbuilder load <id> <out.json> [revision]             Write a stored project to a file")
	fmt.Println("  reportbuilder projects                                    List stored projects")
	fmt.Println("  reportbuilder revisions <id>                              List saved revisions of a project")
	fmt.Println("  reportbuilder search <text...>                            Full-text search over stored projects")
	fmt.Println("  reportbuilder thumb <id> <page> <out.png>                 Cached page thumbnail")
}

// app carries the loaded configuration and the document being edited.
type app struct {
	cfg  config.AppConfig
	log  *slog.Logger
	sess *session.Session
}

func (a *app) OpenDocument() (domain.Document, bool) {
	if a.sess == nil {
		return domain.Document{}, false
	}
	return a.sess.Document(), true
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cfgErr))
	}
	a := &app{cfg: cfg, log: l}
	defer crash.Recover(crashDir(), a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := a.run(ctx, os.Args[1:])
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

func crashDir() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "crash")
}

func (a *app) run(ctx context.Context, args []string) int {
	a.log.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage()
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Println("Report Builder")
		fmt.Println(version.String())
		return 0
	case "new":
		if !need(args, 2, "new requires <file.json>") {
			return 2
		}
		s, err := session.New(a.sessionOptions(false))
		if err != nil {
			return a.fail(err)
		}
		a.sess = s
		if len(args) > 2 {
			title := strings.Join(args[2:], " ")
			if err := s.UpdateDocument(editor.DocumentPatch{Title: &title}); err != nil {
				return a.fail(err)
			}
		}
		if err := a.writeFile(args[1]); err != nil {
			return a.fail(err)
		}
		fmt.Println("Created", args[1])
		return 0
	case "info":
		if !need(args, 2, "info requires <file.json>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		printInfo(a.sess.Document())
		return 0
	case "add":
		if !need(args, 4, "add requires <file.json> <page> <TYPE>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		id, err := a.addBlock(args[2:])
		if err != nil {
			return a.fail(err)
		}
		if err := a.writeFile(args[1]); err != nil {
			return a.fail(err)
		}
		fmt.Println("Added", id)
		return 0
	case "shell":
		if !need(args, 2, "shell requires <file.json>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return a.fail(err)
		} else if err != nil {
			s, nerr := session.New(a.sessionOptions(false))
			if nerr != nil {
				return a.fail(nerr)
			}
			a.sess = s
		}
		if err := a.shell(os.Stdin, os.Stdout, args[1]); err != nil {
			return a.fail(err)
		}
		return 0
	case "export-pdf":
		if !need(args, 3, "export-pdf requires <file.json> <out.pdf>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		if err := export.ExportLayoutPDF(a.sess.Document(), args[2], export.PDFOptions{PageSize: a.cfg.Export.PageSize}); err != nil {
			return a.fail(err)
		}
		fmt.Println("Wrote", args[2])
		return 0
	case "export-png":
		if !need(args, 3, "export-png requires <file.json> <dir>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		files, err := export.ExportPagePNGs(a.sess.Document(), args[2], export.PNGOptions{PageSize: a.cfg.Export.PageSize, DPI: a.cfg.Export.DPI})
		if err != nil {
			return a.fail(err)
		}
		for _, f := range files {
			fmt.Println("Wrote", f)
		}
		return 0
	case "share":
		if !need(args, 2, "share requires <file.json>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		ro := len(args) > 2 && (args[2] == "ro" || args[2] == "--read-only")
		link, err := a.shareLink(ro)
		if err != nil {
			return a.fail(err)
		}
		fmt.Println(link)
		return 0
	case "open-link":
		if !need(args, 3, "open-link requires <link> <out.json>") {
			return 2
		}
		doc, ro, err := sharelink.DecodeLimit(args[1], a.cfg.Share.MaxPayloadBytes)
		if err != nil {
			return a.fail(err)
		}
		opts := a.sessionOptions(ro)
		s, err := session.Open(doc, opts)
		if err != nil {
			return a.fail(err)
		}
		a.sess = s
		if err := a.writeFile(args[2]); err != nil {
			return a.fail(err)
		}
		if ro {
			fmt.Println("Wrote", args[2], "(shared read-only)")
		} else {
			fmt.Println("Wrote", args[2])
		}
		return 0
	case "save":
		if !need(args, 3, "save requires <file.json> <id>") {
			return 2
		}
		if err := a.openFile(args[1]); err != nil {
			return a.fail(err)
		}
		st, err := a.openStore()
		if err != nil {
			return a.fail(err)
		}
		defer st.Close()
		if err := st.Save(ctx, args[2], a.sess.Document()); err != nil {
			return a.fail(err)
		}
		fmt.Printf("Saved %s as %q\n", args[1], args[2])
		return 0
	case "load":
		if !need(args, 3, "load requires <id> <out.json>") {
			return 2
		}
		st, err := a.openStore()
		if err != nil {
			return a.fail(err)
		}
		defer st.Close()
		var doc domain.Document
		if len(args) > 3 {
			rev, perr := strconv.ParseInt(args[3], 10, 64)
			if perr != nil {
				return a.fail(fmt.Errorf("revision must be a number: %w", perr))
			}
			doc, err = st.LoadRevision(ctx, rev)
		} else {
			doc, err = st.Load(ctx, args[1])
		}
		if err != nil {
			return a.fail(err)
		}
		s, err := session.Open(doc, a.sessionOptions(false))
		if err != nil {
			return a.fail(err)
		}
		a.sess = s
		if err := a.writeFile(args[2]); err != nil {
			return a.fail(err)
		}
		fmt.Println("Wrote", args[2])
		return 0
	case "projects":
		st, err := a.openStore()
		if err != nil {
			return a.fail(err)
		}
		defer st.Close()
		list, err := st.List(ctx)
		if err != nil {
			return a.fail(err)
		}
		for _, p := range list {
			fmt.Printf("%-24s %-40q %3d pages  %s\n", p.ID, p.Title, p.PageCount, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return 0
	case "revisions":
		if !need(args, 2, "revisions requires <id>") {
			return 2
		}
		st, err := a.openStore()
		if err != nil {
			return a.fail(err)
		}
		defer st.Close()
		revs, err := st.ListRevisions(ctx, args[1], 0)
		if err != nil {
			return a.fail(err)
		}
		for _, r := range revs {
			fmt.Printf("%6d  %s  %s\n", r.ID, r.TS.Local().Format("2006-01-02 15:04:05"), r.Label)
		}
		return 0
	case "search":
		if !need(args, 2, "search requires <text>") {
			return 2
		}
		st, err := a.openStore()
		if err != nil {
			return a.fail(err)
		}
		defer st.Close()
		res, err := st.Search(ctx, storage.SearchQuery{Text: strings.Join(args[1:], " "), Limit: 50})
		if err != nil {
			return a.fail(err)
		}
		for _, r := range res {
			fmt.Printf("%s  page %d  %-16s %s  %s\n", r.ProjectID, r.PageIndex+1, r.Type, r.BlockID, r.Snippet)
		}
		return 0
	case "thumb":
		if !need(args, 4, "thumb requires <id> <page> <out.png>") {
			return 2
		}
		if err := a.thumbnail(ctx, args[1], args[2], args[3]); err != nil {
			return a.fail(err)
		}
		fmt.Println("Wrote", args[3])
		return 0
	}
	usage()
	return 2
}

func need(args []string, n int, msg string) bool {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		return false
	}
	return true
}

func (a *app) fail(err error) int {
	a.log.Error("command failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	return 1
}

func (a *app) sessionOptions(readOnly bool) session.Options {
	return session.Options{
		HistoryLimit:    a.cfg.Editor.HistoryLimit,
		HistoryMaxBytes: a.cfg.Editor.HistoryMaxBytes,
		IDs:             idgen.New(a.cfg.Editor.IDStrategy),
		ReadOnly:        readOnly,
		Logger:          applog.WithComponent("session"),
	}
}

func (a *app) openFile(path string) error {
	doc, err := storage.ReadDocumentFile(path)
	if err != nil {
		return err
	}
	s, err := session.Open(doc, a.sessionOptions(false))
	if err != nil {
		return err
	}
	a.sess = s
	a.log.Info("document opened", slog.String("path", path), slog.Int("pages", len(doc.Pages)))
	return nil
}

func (a *app) writeFile(path string) error {
	return storage.WriteDocumentFile(path, a.sess.Document(), a.cfg.Storage.Backups)
}

func (a *app) shareLink(readOnly bool) (string, error) {
	return sharelink.Encode(a.sess.Document(), a.cfg.Share.BaseURL, readOnly)
}

func (a *app) openStore() (*storage.Store, error) {
	return storage.OpenStore(a.cfg.Storage.Path)
}

// pageArg parses a 1-based page number into an index.
func pageArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page must be a positive number, got %q", s)
	}
	return n - 1, nil
}

// addBlock handles <page> <TYPE> [WIDTH] [below|beside <n>].
func (a *app) addBlock(args []string) (string, error) {
	page, err := pageArg(args[0])
	if err != nil {
		return "", err
	}
	t := domain.BlockType(strings.ToUpper(args[1]))
	opts := editor.AddOptions{Placeholders: a.cfg.Editor.Placeholders}
	rest := args[2:]
	if len(rest) > 0 && rest[0] != "below" && rest[0] != "beside" {
		w := domain.Width(strings.ToUpper(rest[0]))
		opts.Width = &w
		rest = rest[1:]
	}
	if len(rest) >= 2 {
		anchor, err := strconv.Atoi(rest[1])
		if err != nil || anchor < 1 {
			return "", fmt.Errorf("anchor must be a positive number, got %q", rest[1])
		}
		switch rest[0] {
		case "below":
			return a.sess.AddBlockBelow(page, t, anchor-1, opts)
		case "beside":
			return a.sess.AddBlockBeside(page, t, anchor-1, opts)
		}
	}
	return a.sess.AddBlockAt(page, t, blockCount(a.sess.Document(), page), opts)
}

func blockCount(doc domain.Document, page int) int {
	if page < 0 || page >= len(doc.Pages) {
		return 0
	}
	return len(doc.Pages[page].Blocks)
}

func printInfo(doc domain.Document) {
	fmt.Printf("%s (%s, %s)\n", doc.Title, doc.LayoutFormat, doc.DesignSystem)
	for pi, p := range doc.Pages {
		hidden := ""
		if p.Hidden {
			hidden = " [hidden]"
		}
		fmt.Printf("  %d. %s%s  %d blocks\n", pi+1, p.Title, hidden, len(p.Blocks))
		for ri, row := range layout.Rows(p.Blocks) {
			parts := make([]string, 0, len(row))
			for _, i := range row {
				b := p.Blocks[i]
				parts = append(parts, fmt.Sprintf("#%d %s %s", i+1, b.Type, b.Width))
			}
			fmt.Printf("     row %d: %s\n", ri+1, strings.Join(parts, " | "))
		}
	}
}

// thumbnail renders a stored page through the preview cache.
func (a *app) thumbnail(ctx context.Context, id, pageStr, out string) error {
	page, err := pageArg(pageStr)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	doc, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	if page >= len(doc.Pages) {
		return fmt.Errorf("%w: page %d", editor.ErrPageNotFound, page+1)
	}
	opt := export.PNGOptions{PageSize: a.cfg.Export.PageSize, DPI: a.cfg.Export.DPI}
	size := export.ResolvePageSize(doc.LayoutFormat, opt.PageSize)
	scale := float64(opt.DPI) / 72.0
	if opt.DPI <= 0 {
		scale = 1
	}
	w, h := int(size.Width*scale), int(size.Height*scale)
	data, err := st.GetOrCreatePreview(ctx, id, doc.Pages[page].ID, w, h, func(context.Context) ([]byte, error) {
		return export.RenderPagePNG(doc, page, opt)
	})
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
