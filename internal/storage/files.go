/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reportbuilder/internal/domain"
)

// BackupsDirName is the folder, next to a document file, holding its backups.
const BackupsDirName = "backups"

const backupStamp = "20060102-150405.000"

// WriteDocumentFile writes doc as indented JSON to path with transactional
// semantics. An existing file is first copied to a timestamped backup; only
// the keepBackups most recent backups are kept (0 keeps all).
func WriteDocumentFile(path string, doc domain.Document, keepBackups int) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("document path is required")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure document dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := filepath.Join(dir, BackupsDirName)
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format(backupStamp)))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
		if keepBackups > 0 {
			pruneBackups(path, keepBackups)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// ReadDocumentFile loads a document file, validating it and filling missing
// fields from defaults. If the file is missing or unreadable, the latest
// backup is tried.
func ReadDocumentFile(path string) (domain.Document, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		doc, perr := domain.Parse(b)
		if perr == nil {
			return doc, nil
		}
		err = perr
	}
	doc, berr := readLatestBackup(path)
	if berr != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w; backup attempt: %v", path, err, berr)
	}
	return doc, nil
}

// AutosaveDocument writes doc to a new timestamped file in dir and returns its path.
func AutosaveDocument(dir string, doc domain.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("autosave-%s.json", time.Now().Format("20060102-150405")))
	if err := WriteDocumentFile(path, doc, 0); err != nil {
		return "", err
	}
	return path, nil
}

func backupsOf(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func pruneBackups(path string, keep int) {
	all, err := backupsOf(path)
	if err != nil || len(all) <= keep {
		return
	}
	for _, p := range all[:len(all)-keep] {
		_ = os.Remove(p)
	}
}

// readLatestBackup tries the backups of path from newest to oldest.
func readLatestBackup(path string) (domain.Document, error) {
	all, err := backupsOf(path)
	if err != nil {
		return domain.Document{}, err
	}
	if len(all) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	var lastErr error
	for i := len(all) - 1; i >= 0; i-- {
		b, err := os.ReadFile(all[i])
		if err != nil {
			lastErr = err
			continue
		}
		doc, err := domain.Parse(b)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", filepath.Base(all[i]), err)
			continue
		}
		return doc, nil
	}
	return domain.Document{}, lastErr
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
