package decoder

import (
	"context"
	"strings"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// StaticDecoder decodes VINs from a local WMI table. It never blocks and
// is deterministic.
type StaticDecoder struct {
	wmi    map[string]string
	prefix map[string]string
}

// NewStatic builds a StaticDecoder. WithWMIOverrides extends the built-in
// table; override keys of two characters extend the prefix table.
func NewStatic(opts ...Option) *StaticDecoder {
	o := buildOptions(opts)
	d := &StaticDecoder{
		wmi:    make(map[string]string, len(wmiTable)+len(o.wmiOverrides)),
		prefix: make(map[string]string, len(wmiPrefixTable)),
	}
	for k, v := range wmiTable {
		d.wmi[k] = v
	}
	for k, v := range wmiPrefixTable {
		d.prefix[k] = v
	}
	for k, v := range o.wmiOverrides {
		k = strings.ToUpper(strings.TrimSpace(k))
		switch len(k) {
		case 2:
			d.prefix[k] = v
		case 3:
			d.wmi[k] = v
		}
	}
	return d
}

// Name implements Decoder.
func (d *StaticDecoder) Name() string { return model.SourceStatic }

// Manufacturer returns the make registered for wmi.
func (d *StaticDecoder) Manufacturer(wmi string) (string, bool) {
	if m, ok := d.wmi[wmi]; ok {
		return m, true
	}
	if len(wmi) >= 2 {
		if m, ok := d.prefix[wmi[:2]]; ok {
			return m, true
		}
	}
	return "", false
}

// Decode implements Decoder.
func (d *StaticDecoder) Decode(ctx context.Context, v vin.VIN) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}
	rec := positional(v, model.SourceStatic)
	m, ok := d.Manufacturer(rec.WMI)
	if !ok {
		return model.Record{}, newError(d.Name(), string(v), ErrUnknownManufacturer, nil)
	}
	rec.Manufacturer = m
	return rec, nil
}
