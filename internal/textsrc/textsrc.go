// Package textsrc supplies raw text for training: plain or HTML files and
// JSONL corpora of {"author", "text"} records.
package textsrc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
)

// Record is one JSONL corpus entry.
type Record struct {
	Author string `json:"author"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// dropInvalid deletes bytes that are not part of a valid UTF-8 sequence.
// Well-formed U+FFFD characters pass through.
type dropInvalid struct{ transform.NopResetter }

func (dropInvalid) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// newDecoder drops malformed UTF-8, strips a BOM and composes to NFC.
func newDecoder() transform.Transformer {
	return transform.Chain(
		dropInvalid{},
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		norm.NFC,
	)
}

// Decode turns raw bytes into clean Unicode text.
func Decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(newDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// LoadFile reads path as text. Files ending in .html or .htm are reduced to
// their visible text. A missing or unreadable file wraps
// internalerr.ErrSourceUnavailable.
func LoadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrSourceUnavailable)
	}
	defer f.Close()

	raw, err := io.ReadAll(transform.NewReader(f, newDecoder()))
	if err != nil {
		return "", fmt.Errorf("read %s: %v: %w", path, err, internalerr.ErrSourceUnavailable)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ExtractHTML(string(raw))
	}
	return string(raw), nil
}

// ExtractHTML returns the text nodes of an HTML document. Script and style
// contents are skipped and every text node is followed by a space so block
// boundaries do not glue words together.
func ExtractHTML(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String()), nil
}

// LoadJSONL reads records from a JSONL file. Malformed lines and records
// without text are skipped with a warning.
func LoadJSONL(path string, logger *slog.Logger) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read file %s: %w", path, internalerr.ErrSourceUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("read file %s: %v: %w", path, err, internalerr.ErrSourceUnavailable)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Clean the raw bytes first; encoding/json would turn malformed
	// sequences into U+FFFD.
	data, _, err = transform.Bytes(dropInvalid{}, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("skipping malformed JSON", "path", path, "line", lineNo, "error", err)
			continue
		}
		if strings.TrimSpace(rec.Text) == "" {
			logger.Warn("skipping record without text", "path", path, "line", lineNo)
			continue
		}
		rec.Text = norm.NFC.String(rec.Text)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found in %s: %w", path, internalerr.ErrInvalidInput)
	}
	return records, nil
}

// ByAuthor groups record texts by author, preserving file order.
func ByAuthor(records []Record) map[string][]string {
	out := make(map[string][]string)
	for _, r := range records {
		out[r.Author] = append(out[r.Author], r.Text)
	}
	return out
}
