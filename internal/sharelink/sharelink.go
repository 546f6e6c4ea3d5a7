/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sharelink packs a whole document into a URL so it can be opened
// elsewhere without a server. The payload is the canonical JSON of the
// document, brotli-compressed and base64url-encoded into the "d" query
// parameter. "ro=1" marks the link as view-only.
package sharelink

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"

	"reportbuilder/internal/domain"
	applog "reportbuilder/internal/log"
)

const (
	ParamData     = "d"
	ParamReadOnly = "ro"

	// DefaultMaxPayloadBytes caps the decompressed document size accepted by Decode.
	DefaultMaxPayloadBytes = 8 << 20
)

var (
	ErrNoPayload       = errors.New("share link has no document payload")
	ErrCorruptPayload  = errors.New("share link payload is corrupt")
	ErrPayloadTooLarge = errors.New("share link payload too large")
)

// Encode builds a share link for doc on top of baseURL. Existing query
// parameters of baseURL are kept.
func Encode(doc domain.Document, baseURL string, readOnly bool) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	raw, err := domain.Canonical(doc)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(raw); err != nil {
		return "", fmt.Errorf("compress document: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress document: %w", err)
	}
	q := u.Query()
	q.Set(ParamData, base64.RawURLEncoding.EncodeToString(buf.Bytes()))
	if readOnly {
		q.Set(ParamReadOnly, "1")
	} else {
		q.Del(ParamReadOnly)
	}
	u.RawQuery = q.Encode()
	applog.WithOperation(applog.WithComponent("sharelink"), "encode").Debug("share link built",
		slog.Int("json_bytes", len(raw)), slog.Int("payload_bytes", buf.Len()), slog.Bool("read_only", readOnly))
	return u.String(), nil
}

// Decode reads a link produced by Encode. It returns the document with
// defaults merged in and whether the link was marked read-only.
func Decode(link string) (domain.Document, bool, error) {
	return DecodeLimit(link, DefaultMaxPayloadBytes)
}

// DecodeLimit is Decode with an explicit cap on the decompressed size.
func DecodeLimit(link string, maxBytes int) (domain.Document, bool, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("parse share link: %w", err)
	}
	q := u.Query()
	data := q.Get(ParamData)
	if data == "" {
		return domain.Document{}, false, ErrNoPayload
	}
	readOnly := q.Get(ParamReadOnly) == "1"

	packed, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	r := io.LimitReader(brotli.NewReader(bytes.NewReader(packed)), int64(maxBytes)+1)
	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if len(raw) > maxBytes {
		return domain.Document{}, false, ErrPayloadTooLarge
	}
	doc, err := domain.Parse(raw)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	return doc, readOnly, nil
}
