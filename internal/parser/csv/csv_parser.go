// Package csv reads a whole CSV source into a table.Table. It handles the
// quirks seen in published statistical datasets: a UTF-8 byte-order mark,
// preamble lines above the header, non-UTF-8 encodings and ragged rows.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"co2etl/internal/config"
	"co2etl/internal/table"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// SkipRows drops this many physical lines before the header row
	// (World Bank downloads carry four).
	SkipRows int

	// TrimSpace trims leading/trailing whitespace from header cells. Data
	// cells are never altered: entity names match byte for byte.
	TrimSpace bool

	// LazyQuotes relaxes quote handling in encoding/csv.
	LazyQuotes bool

	// Encoding names the input character set: "utf-8" (default), "utf-16",
	// "latin1" or "windows-1252". A byte-order mark always wins.
	Encoding string
}

// OptionsFrom reads parser options from a config bag:
//
//	comma (string), skip_rows (int), trim_space (bool, headers only, default true),
//	lazy_quotes (bool), encoding (string)
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		SkipRows:   o.Int("skip_rows", 0),
		TrimSpace:  o.Bool("trim_space", true),
		LazyQuotes: o.Bool("lazy_quotes", false),
		Encoding:   o.String("encoding", "utf-8"),
	}
}

// Parser turns CSV bytes into a table. It is safe to reuse across inputs.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Read consumes r fully and returns the table named name. The header row is
// kept verbatim (apart from trimming); header normalization is the caller's
// decision. Data cells are returned exactly as read. Rows shorter than the header are kept and read as empty cells;
// a row wider than the header is an error because its cells cannot be
// attributed to columns.
func (p *Parser) Read(ctx context.Context, name string, r io.Reader) (*table.Table, error) {
	cr, h, err := p.open(name, r)
	if err != nil {
		return nil, err
	}

	t := &table.Table{Name: name, Headers: h}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: parse: %w", name, err)
		}
		if len(rec) > len(t.Headers) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%s: line %d: %d fields for %d header columns", name, line+p.opt.SkipRows, len(rec), len(t.Headers))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadHeader returns only the header row of r. The rest of the input is
// left unread.
func (p *Parser) ReadHeader(name string, r io.Reader) ([]string, error) {
	_, h, err := p.open(name, r)
	return h, err
}

// open decodes r, skips the preamble and reads the header row.
func (p *Parser) open(name string, r io.Reader) (*csv.Reader, []string, error) {
	dec, err := decoderFor(p.opt.Encoding)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReaderSize(transform.NewReader(r, unicode.BOMOverride(dec)), 64*1024)

	for i := 0; i < p.opt.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("%s: input ended after %d of %d skipped rows", name, i, p.opt.SkipRows)
			}
			return nil, nil, fmt.Errorf("%s: skip row %d: %w", name, i+1, err)
		}
	}

	cr := csv.NewReader(br)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	// Width is enforced by Read so short rows survive.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &table.SchemaError{Table: name, Reason: "no header row"}
		}
		return nil, nil, fmt.Errorf("%s: read csv header: %w", name, err)
	}
	return cr, p.trimHeader(h), nil
}

func (p *Parser) trimHeader(rec []string) []string {
	if !p.opt.TrimSpace {
		return rec
	}
	for i, v := range rec {
		rec[i] = strings.TrimSpace(v)
	}
	return rec
}

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	case "utf-16", "utf16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", name)
	}
}
