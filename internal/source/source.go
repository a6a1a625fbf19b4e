// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package source loads Delphi source files and decodes them to text.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type Encoding string

const (
	UTF8        Encoding = "utf-8"
	UTF8BOM     Encoding = "utf-8-bom"
	UTF16LE     Encoding = "utf-16le"
	UTF16BE     Encoding = "utf-16be"
	Windows1252 Encoding = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

var ErrFileTooLarge = errors.New("file exceeds size limit")

type File struct {
	Path     string
	Text     string
	Encoding Encoding
}

// Load reads and decodes the file at path. A maxSize of zero disables the size check.
func Load(path string, maxSize int64) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %q: %w", path, err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("failed to load file %q (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file %q: %w", path, err)
	}
	return &File{Path: path, Text: text, Encoding: enc}, nil
}

// Decode converts raw file content to text. A byte order mark selects UTF-8 or
// UTF-16; without one the content is UTF-8 when valid and Windows-1252 otherwise,
// which is what older Delphi IDEs write by default.
func Decode(data []byte) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), UTF8BOM, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data, UTF16LE)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data, UTF16BE)
	case utf8.Valid(data):
		return string(data), UTF8, nil
	default:
		return decodeWith(charmap.Windows1252.NewDecoder(), data, Windows1252)
	}
}

func decodeWith(dec *encoding.Decoder, data []byte, enc Encoding) (string, Encoding, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", enc, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}
