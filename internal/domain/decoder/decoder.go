// Package decoder maps validated VINs to decoded records. Decoders are
// pluggable: a local WMI table, the NHTSA vPIC web service, or the remote
// service with the local table as fallback.
package decoder

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
)

// Decoder maps a validated VIN to a decoded record. Implementations must be
// safe for concurrent use and must not stamp DecodedAt.
type Decoder interface {
	Decode(ctx context.Context, v vin.VIN) (model.Record, error)
	// Name identifies the decoder in logs and metrics.
	Name() string
}

// Mode selects the decoder built by New.
type Mode string

// Decoder modes.
const (
	ModeStatic       Mode = "static"
	ModeVPIC         Mode = "vpic"
	ModeVPICFallback Mode = "vpic_fallback"
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStatic, ModeVPIC, ModeVPICFallback:
		return m, nil
	default:
		return "", fmt.Errorf("unknown decoder mode %q", s)
	}
}

// Default remote decoder settings.
const (
	DefaultVPICBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"
	defaultTimeout     = 10 * time.Second
)

// options collects the settings shared by every decoder constructor.
type options struct {
	baseURL      string
	timeout      time.Duration
	httpClient   *http.Client
	wmiOverrides map[string]string
	logger       logger.Logger
}

// Option configures decoders built by New and the individual constructors.
type Option func(*options)

// WithBaseURL sets the vPIC API base URL (without trailing slash).
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client used for remote calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithWMIOverrides adds or replaces WMI -> manufacturer entries of the
// static table.
func WithWMIOverrides(m map[string]string) Option {
	return func(o *options) {
		if len(m) > 0 {
			o.wmiOverrides = m
		}
	}
}

// WithLogger sets the logger used by remote decoders.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		baseURL: DefaultVPICBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}

// New builds the decoder selected by mode.
func New(mode Mode, opts ...Option) (Decoder, error) {
	switch mode {
	case ModeStatic:
		return NewStatic(opts...), nil
	case ModeVPIC:
		return NewVPIC(opts...), nil
	case ModeVPICFallback:
		return NewFallback(NewVPIC(opts...), NewStatic(opts...)), nil
	default:
		return nil, fmt.Errorf("unknown decoder mode %q", mode)
	}
}

// positional fills the fields every decoder derives from the VIN itself.
func positional(v vin.VIN, source string) model.Record {
	p := vin.Parse(v)
	rec := model.Record{
		VIN:       string(v),
		Region:    string(p.Region),
		Country:   p.Country,
		PlantCode: p.PlantCode,
		Serial:    p.Serial,
		WMI:       p.WMI,
		Source:    source,
	}
	if p.ModelYear > 0 {
		rec.ModelYear = strconv.Itoa(p.ModelYear)
	}
	return rec
}
