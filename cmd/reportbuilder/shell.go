/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/editor"
)

const shellHelp = `Commands (pages and block positions are 1-based):
  info                                   show pages and rows
  add <page> <TYPE> [WIDTH] [below|beside <n>]
  rm <page> <blockID...>                 remove blocks (one undo step)
  mv <page> <n> up|down                  move a block
  dup <page> <n> [next]                  duplicate a block, optionally onto the next page
  copy <page> <blockID...>               copy blocks to the clipboard
  paste <page> <n>                       paste the clipboard before position n
  title <text>                           rename the document
  page-add | page-dup <page> | page-rm <page> | page-mv <page> up|down
  page-title <page> <text>               rename a page
  hide <page> | show <page>              toggle printing of a page
  where <id>                             locate a block or page by id
  undo | redo | history
  write                                  save to the file
  quit`

// shell runs a line-oriented editing loop over the open session.
func (a *app) shell(in io.Reader, out io.Writer, path string) error {
	saved := a.sess.Document()
	sc := bufio.NewScanner(in)
	_, _ = fmt.Fprintln(out, "Editing", path, "(type help)")
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		if f[0] == "quit" || f[0] == "exit" {
			break
		}
		if f[0] == "write" {
			if err := a.writeFile(path); err != nil {
				_, _ = fmt.Fprintln(out, "Error:", err)
				continue
			}
			saved = a.sess.Document()
			_, _ = fmt.Fprintln(out, "Wrote", path)
			continue
		}
		msg, err := a.shellCommand(f)
		if err != nil {
			_, _ = fmt.Fprintln(out, "Error:", err)
			continue
		}
		if msg != "" {
			_, _ = fmt.Fprintln(out, msg)
		}
	}
	if !domain.Equal(saved, a.sess.Document()) {
		_, _ = fmt.Fprintln(out, "Unsaved changes discarded.")
	}
	return sc.Err()
}

func (a *app) shellCommand(f []string) (string, error) {
	s := a.sess
	arg := func(i int) string {
		if i < len(f) {
			return f[i]
		}
		return ""
	}
	switch f[0] {
	case "help":
		return shellHelp, nil
	case "info":
		printInfo(s.Document())
		return "", nil
	case "add":
		if len(f) < 3 {
			return "", fmt.Errorf("add <page> <TYPE> [WIDTH] [below|beside <n>]")
		}
		id, err := a.addBlock(f[1:])
		return "added " + id, err
	case "rm":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		return "", s.RemoveBlocks(page, f[2:])
	case "mv", "page-mv":
		dir := editor.Backward
		switch arg(len(f) - 1) {
		case "down", "right", "next":
			dir = editor.Forward
		case "up", "left", "prev":
		default:
			return "", fmt.Errorf("direction must be up or down")
		}
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		if f[0] == "page-mv" {
			return "", s.MovePage(page, dir)
		}
		n, err := position(arg(2))
		if err != nil {
			return "", err
		}
		return "", s.MoveBlock(page, n, dir)
	case "dup":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		n, err := position(arg(2))
		if err != nil {
			return "", err
		}
		id, err := s.DuplicateBlock(page, n, arg(3) == "next")
		return "added " + id, err
	case "copy":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		if err := s.CopyBlocks(page, f[2:]); err != nil {
			return "", err
		}
		clip, err := s.Clipboard()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d block(s) copied", len(clip)), nil
	case "paste":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		n, err := position(arg(2))
		if err != nil {
			return "", err
		}
		ids, err := s.PasteClipboard(page, n)
		return "pasted " + strings.Join(ids, ", "), err
	case "title":
		title := strings.Join(f[1:], " ")
		return "", s.UpdateDocument(editor.DocumentPatch{Title: &title})
	case "page-add":
		id, err := s.CreatePage()
		return "added " + id, err
	case "page-dup":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		id, err := s.DuplicatePage(page)
		return "added " + id, err
	case "page-rm":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		return "", s.RemovePage(page)
	case "page-title":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		title := strings.Join(f[2:], " ")
		return "", s.UpdatePage(page, editor.PagePatch{Title: &title})
	case "hide", "show":
		page, err := pageArg(arg(1))
		if err != nil {
			return "", err
		}
		hidden := f[0] == "hide"
		return "", s.UpdatePage(page, editor.PagePatch{Hidden: &hidden})
	case "where":
		doc := s.Document()
		if pi, bi, ok := doc.FindBlock(arg(1)); ok {
			return fmt.Sprintf("page %d, block #%d", pi+1, bi+1), nil
		}
		if pi := doc.PageIndexOf(arg(1)); pi >= 0 {
			return fmt.Sprintf("page %d", pi+1), nil
		}
		return "", fmt.Errorf("no block or page with id %q", arg(1))
	case "undo":
		if !s.Undo() {
			return "nothing to undo", nil
		}
		return "", nil
	case "redo":
		if !s.Redo() {
			return "nothing to redo", nil
		}
		return "", nil
	case "history":
		u, r := s.HistoryLabels()
		bytes, past, future := s.HistoryStats()
		return fmt.Sprintf("undo: %q  redo: %q  (%d back, %d forward, %d bytes)", u, r, past, future, bytes), nil
	}
	return "", fmt.Errorf("unknown command %q (type help)", f[0])
}

// position parses a 1-based block position into an index.
func position(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive number, got %q", s)
	}
	return n - 1, nil
}
