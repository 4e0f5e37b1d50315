// Package export serializes record snapshots into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/okian/vinlookup/internal/domain/model"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML, FormatParquet}

// BaseFilename is the stem of every exported file name.
const BaseFilename = "vin_records"

var contentTypes = map[Format]string{
	FormatCSV:     "text/csv; charset=utf-8",
	FormatJSON:    "application/json",
	FormatYAML:    "application/yaml",
	FormatParquet: "application/vnd.apache.parquet",
}

// ParseFormat converts a query or config value into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = FormatYAML
	}
	if _, ok := contentTypes[f]; !ok {
		return "", &Error{Format: s, Err: ErrUnknownFormat}
	}
	return f, nil
}

// Artifact is a rendered export.
type Artifact struct {
	Format      Format
	Data        []byte
	ContentType string
	Filename    string
	// Rows is the number of records written, headers excluded.
	Rows int
	// ETag is a quoted xxhash digest of Data.
	ETag string
}

// Exporter renders records in one of the supported formats.
type Exporter struct {
	allowEmpty    bool
	defaultFormat Format
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithAllowEmpty lets an empty record set produce a file with no rows
// instead of ErrEmpty.
func WithAllowEmpty(allow bool) Option {
	return func(e *Exporter) { e.allowEmpty = allow }
}

// WithDefaultFormat sets the format used when none is requested.
func WithDefaultFormat(f Format) Option {
	return func(e *Exporter) {
		if _, ok := contentTypes[f]; ok {
			e.defaultFormat = f
		}
	}
}

// New builds an Exporter. The default format is CSV and empty exports fail.
func New(opts ...Option) *Exporter {
	e := &Exporter{defaultFormat: FormatCSV}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultFormat returns the format used for an empty format argument.
func (e *Exporter) DefaultFormat() Format { return e.defaultFormat }

// Export renders records as format. An empty format selects the default.
func (e *Exporter) Export(records []model.Record, format Format) (Artifact, error) {
	if format == "" {
		format = e.defaultFormat
	}
	ct, ok := contentTypes[format]
	if !ok {
		return Artifact{}, &Error{Format: string(format), Err: ErrUnknownFormat}
	}
	if len(records) == 0 && !e.allowEmpty {
		return Artifact{}, &Error{Format: string(format), Err: ErrEmpty}
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = encodeCSV(records)
	case FormatJSON:
		data, err = encodeJSON(records)
	case FormatYAML:
		data, err = encodeYAML(records)
	case FormatParquet:
		data, err = encodeParquet(records)
	}
	if err != nil {
		return Artifact{}, &Error{Format: string(format), Err: err}
	}

	return Artifact{
		Format:      format,
		Data:        data,
		ContentType: ct,
		Filename:    BaseFilename + "." + string(format),
		Rows:        len(records),
		ETag:        fmt.Sprintf(`"%016x"`, xxhash.Sum64(data)),
	}, nil
}

func encodeCSV(records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(model.Columns); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.VIN, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(records []model.Record) ([]byte, error) {
	if records == nil {
		records = []model.Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

func encodeYAML(records []model.Record) ([]byte, error) {
	if records == nil {
		records = []model.Record{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeParquet(records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
