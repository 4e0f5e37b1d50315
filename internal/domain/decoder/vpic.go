package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

// maxBodyBytes caps the vPIC response size read into memory.
const maxBodyBytes = 4 << 20

// vPIC variable names kept from a DecodeVin response.
const (
	varMake         = "Make"
	varModel        = "Model"
	varModelYear    = "Model Year"
	varBodyClass    = "Body Class"
	varPlantCountry = "Plant Country"
)

// VPICDecoder decodes VINs with the NHTSA vPIC DecodeVin endpoint.
// Concurrent decodes of the same VIN share one upstream request.
type VPICDecoder struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
	group   singleflight.Group
}

// NewVPIC builds a VPICDecoder.
func NewVPIC(opts ...Option) *VPICDecoder {
	o := buildOptions(opts)
	return &VPICDecoder{
		baseURL: o.baseURL,
		client:  o.httpClient,
		timeout: o.timeout,
		log:     o.logger,
	}
}

// Name implements Decoder.
func (d *VPICDecoder) Name() string { return model.SourceVPIC }

// Decode implements Decoder.
func (d *VPICDecoder) Decode(ctx context.Context, v vin.VIN) (model.Record, error) {
	ch := d.group.DoChan(string(v), func() (any, error) {
		// the shared call must outlive a single caller's cancellation
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.fetch(callCtx, v)
	})
	select {
	case <-ctx.Done():
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return model.Record{}, res.Err
		}
		return res.Val.(model.Record), nil
	}
}

func (d *VPICDecoder) fetch(ctx context.Context, v vin.VIN) (model.Record, error) {
	endpoint := fmt.Sprintf("%s/DecodeVin/%s?format=json", d.baseURL, url.PathEscape(string(v)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("network")
		d.warn(ctx, "vpic request failed", v, err)
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamRequest(strconv.Itoa(resp.StatusCode/100) + "xx")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("vpic returned status %d", resp.StatusCode)
		d.warn(ctx, "vpic request rejected", v, err)
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, err)
	}
	if !gjson.ValidBytes(body) {
		return model.Record{}, newError(d.Name(), string(v), ErrUnavailable, errors.New("malformed vpic response"))
	}

	attrs := make(map[string]string, 5)
	gjson.GetBytes(body, "Results").ForEach(func(_, item gjson.Result) bool {
		switch name := item.Get("Variable").String(); name {
		case varMake, varModel, varModelYear, varBodyClass, varPlantCountry:
			attrs[name] = item.Get("Value").String()
		}
		return true
	})

	for _, key := range []string{varMake, varModel, varModelYear, varBodyClass} {
		if attrs[key] == "" {
			return model.Record{}, newError(d.Name(), string(v), ErrVINNotFound,
				fmt.Errorf("vpic has no %q for this vin", key))
		}
	}

	rec := positional(v, model.SourceVPIC)
	rec.Manufacturer = attrs[varMake]
	rec.Model = attrs[varModel]
	rec.ModelYear = attrs[varModelYear]
	rec.BodyClass = attrs[varBodyClass]
	if c := attrs[varPlantCountry]; c != "" && rec.Country == "" {
		rec.Country = c
	}
	return rec, nil
}

func (d *VPICDecoder) warn(ctx context.Context, msg string, v vin.VIN, err error) {
	if d.log == nil {
		return
	}
	d.log.Warn(ctx, msg, logger.String("vin", string(v)), logger.String("base_url", d.baseURL), logger.Error(err))
}
