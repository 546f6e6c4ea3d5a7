/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a fatal panic into a crash report plus an autosave of
// the open document.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"reportbuilder/internal/domain"
	applog "reportbuilder/internal/log"
	"reportbuilder/internal/storage"
	"reportbuilder/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// DocumentSource reports the document being edited, if any.
type DocumentSource interface {
	OpenDocument() (domain.Document, bool)
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file into dir, and attempts a crash-safe autosave
// of the current document (if src is non-nil).
//
// Usage: defer crash.Recover(dir, sess)
func Recover(dir string, src DocumentSource) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		var doc *domain.Document
		if src != nil {
			doc = snapshot(src)
		}
		reportPath, err := writeReport(dir, r, stack, doc)
		if err != nil {
			l.Error("write crash report failed", slog.Any("err", err))
		}
		if doc != nil {
			if path, err := storage.AutosaveDocument(reportDir(dir), *doc); err != nil {
				l.Error("autosave after crash failed", slog.Any("err", err))
			} else {
				l.Info("autosave written", slog.String("path", path))
				_, _ = fmt.Fprintf(os.Stderr, "Your document was saved to: %s\n", path)
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// snapshot reads the document, giving up if the source itself is broken.
func snapshot(src DocumentSource) (doc *domain.Document) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent("crash").Error("document unavailable for autosave", slog.Any("panic", r))
			doc = nil
		}
	}()
	d, ok := src.OpenDocument()
	if !ok {
		return nil
	}
	return &d
}

func reportDir(dir string) string {
	if dir == "" {
		return os.TempDir()
	}
	return dir
}

func writeReport(dir string, panicVal any, stack []byte, doc *domain.Document) (string, error) {
	dir = reportDir(dir)
	_ = os.MkdirAll(dir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Report Builder Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if doc != nil {
		_, _ = fmt.Fprintf(&buf, "Document: %q (%d pages, %d blocks)\n", doc.Title, len(doc.Pages), doc.BlockCount())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
