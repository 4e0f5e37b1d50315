package decoder

import (
	"context"
	"errors"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// FallbackDecoder asks the primary decoder first and turns to the secondary
// only when the primary is unavailable. A definitive answer from the
// primary, such as ErrVINNotFound, is returned as is.
type FallbackDecoder struct {
	primary   Decoder
	secondary Decoder
}

// NewFallback builds a FallbackDecoder.
func NewFallback(primary, secondary Decoder) *FallbackDecoder {
	return &FallbackDecoder{primary: primary, secondary: secondary}
}

// Name implements Decoder.
func (d *FallbackDecoder) Name() string {
	return d.primary.Name() + "+" + d.secondary.Name()
}

// Decode implements Decoder.
func (d *FallbackDecoder) Decode(ctx context.Context, v vin.VIN) (model.Record, error) {
	rec, err := d.primary.Decode(ctx, v)
	if err == nil || !errors.Is(err, ErrUnavailable) {
		return rec, err
	}
	if ctx.Err() != nil {
		return model.Record{}, err
	}
	rec, ferr := d.secondary.Decode(ctx, v)
	if ferr != nil {
		return model.Record{}, errors.Join(err, ferr)
	}
	return rec, nil
}
