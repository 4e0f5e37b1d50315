package api_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vinlookup/internal/adapters/http/api"
	service "github.com/okian/vinlookup/internal/app"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const hondaVIN = "1HGCM82633A004352"

// failingDecoder always returns err.
type failingDecoder struct{ err error }

func (f failingDecoder) Name() string { return "failing" }

func (f failingDecoder) Decode(context.Context, vin.VIN) (model.Record, error) {
	return model.Record{}, f.err
}

func newTestServer(opts ...service.Option) (http.Handler, *service.Service) {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return api.Handler(logger.Get(), mux), svc
}

func do(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestLookupEndpoint(t *testing.T) {
	Convey("Given an API server backed by the static decoder", t, func() {
		h, svc := newTestServer()
		defer svc.Stop()

		Convey("When a VIN is posted as JSON twice", func() {
			first := do(h, http.MethodPost, "/lookup", "application/json", `{"vin":"1HGCM82633A004352"}`)
			second := do(h, http.MethodPost, "/lookup", "application/json", `{"vin":"1HGCM82633A004352"}`)

			Convey("Then the first is decoded and the second cached", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(first)
				So(body["vin_requested"], ShouldEqual, hondaVIN)
				So(body["manufacturer"], ShouldEqual, "Honda")
				So(body["make"], ShouldEqual, "Honda")
				So(body["model_year"], ShouldEqual, "2003")
				So(body["cached_result"], ShouldEqual, false)
				So(decodeBody(second)["cached_result"], ShouldEqual, true)
			})

			Convey("Then refresh=true decodes again", func() {
				w := do(h, http.MethodPost, "/lookup?refresh=true", "application/json", `{"vin":"1HGCM82633A004352"}`)
				So(decodeBody(w)["cached_result"], ShouldEqual, false)
			})
		})

		Convey("When a VIN is posted as plain text", func() {
			w := do(h, http.MethodPost, "/lookup", "text/plain", " 1hgcm82633a004352\n")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["vin_requested"], ShouldEqual, hondaVIN)
		})

		Convey("When the VIN is malformed", func() {
			w := do(h, http.MethodPost, "/lookup", "application/json", `{"vin":"1HGCM82633A00435"}`)

			Convey("Then it is a 400 with a JSON error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeBody(w)
				So(body["code"], ShouldEqual, "invalid_vin")
				So(body["message"], ShouldContainSubstring, "17")
			})
		})

		Convey("When the body is missing or broken", func() {
			So(do(h, http.MethodPost, "/lookup", "application/json", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/lookup", "application/json", `{"vin":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/lookup", "", ``).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the manufacturer is unknown", func() {
			w := do(h, http.MethodPost, "/lookup", "text/plain", "9ZZAA11111A000001")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeBody(w)["code"], ShouldEqual, "unknown_manufacturer")
		})

		Convey("When the method is wrong", func() {
			w := do(h, http.MethodGet, "/lookup", "", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
		})

		Convey("Then every response carries a request id", func() {
			w := do(h, http.MethodGet, "/healthz", "", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})
	})

	Convey("Given an API server whose decoder fails", t, func() {
		Convey("When the remote decoder is unavailable", func() {
			h, svc := newTestServer(service.WithDecoder(failingDecoder{err: &decoder.Error{Decoder: "failing", Kind: decoder.ErrUnavailable}}))
			defer svc.Stop()
			w := do(h, http.MethodPost, "/lookup", "text/plain", hondaVIN)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeBody(w)["code"], ShouldEqual, "decoder_unavailable")
		})

		Convey("When the remote decoder does not know the VIN", func() {
			h, svc := newTestServer(service.WithDecoder(failingDecoder{err: &decoder.Error{Decoder: "failing", Kind: decoder.ErrVINNotFound}}))
			defer svc.Stop()
			w := do(h, http.MethodPost, "/lookup", "text/plain", hondaVIN)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Header().Get("X-Error"), ShouldEqual, "VIN doesn't exist or invalid VIN has been entered")
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given an API server with a batch limit of three", t, func() {
		h, svc := newTestServer(service.WithBatchLimits(3, 2))
		defer svc.Stop()

		Convey("When a mixed batch is posted", func() {
			w := do(h, http.MethodPost, "/lookup/batch", "application/json",
				`{"vins":["1HGCM82633A004352","nope","5YJ3E1EA7KF317000"]}`)

			Convey("Then each item is answered in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Items []struct {
						Input  string         `json:"input"`
						Result map[string]any `json:"result"`
						Error  map[string]any `json:"error"`
					} `json:"items"`
					Succeeded int `json:"succeeded"`
					Failed    int `json:"failed"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Items), ShouldEqual, 3)
				So(resp.Succeeded, ShouldEqual, 2)
				So(resp.Failed, ShouldEqual, 1)
				So(resp.Items[1].Input, ShouldEqual, "nope")
				So(resp.Items[1].Error["code"], ShouldEqual, "invalid_vin")
				So(resp.Items[2].Result["manufacturer"], ShouldEqual, "Tesla")
				So(resp.Items[2].Result["make"], ShouldEqual, "Tesla")
			})
		})

		Convey("When the batch is empty or too large", func() {
			So(do(h, http.MethodPost, "/lookup/batch", "application/json", `{"vins":[]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/lookup/batch", "application/json", `{"vins":["a","b","c","d"]}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRemoveAndRecordsEndpoints(t *testing.T) {
	Convey("Given an API server with one stored record", t, func() {
		h, svc := newTestServer()
		defer svc.Stop()
		So(do(h, http.MethodPost, "/lookup", "text/plain", hondaVIN).Code, ShouldEqual, http.StatusOK)

		Convey("When listing records", func() {
			w := do(h, http.MethodGet, "/records", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["count"], ShouldEqual, float64(1))
		})

		Convey("When fetching the record by VIN", func() {
			So(do(h, http.MethodGet, "/records/"+hondaVIN, "", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/records/5YJ3E1EA7KF317000", "", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/records/", "", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When removing it", func() {
			w := do(h, http.MethodPost, "/remove", "application/json", `{"vin":"1HGCM82633A004352"}`)

			Convey("Then the removal is acknowledged and the list is empty", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["vin_requested"], ShouldEqual, hondaVIN)
				So(body["delete_success"], ShouldEqual, true)
				So(decodeBody(do(h, http.MethodGet, "/records", "", ""))["count"], ShouldEqual, float64(0))
			})

			Convey("Then removing it again is a 404", func() {
				again := do(h, http.MethodPost, "/remove", "text/plain", hondaVIN)
				So(again.Code, ShouldEqual, http.StatusNotFound)
				So(decodeBody(again)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestValidateEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		h, svc := newTestServer()
		defer svc.Stop()

		Convey("When validating a good VIN", func() {
			body := decodeBody(do(h, http.MethodPost, "/validate", "text/plain", hondaVIN))
			So(body["valid"], ShouldEqual, true)
			parts := body["parts"].(map[string]any)
			So(parts["wmi"], ShouldEqual, "1HG")
			So(parts["model_year"], ShouldEqual, float64(2003))
		})

		Convey("When validating a VIN with a bad check digit", func() {
			w := do(h, http.MethodPost, "/validate", "text/plain", "1HGCM82643A004352")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["valid"], ShouldEqual, false)
			So(body["reason"], ShouldEqual, "check_digit")
		})

		Convey("Then validation never stores anything", func() {
			So(decodeBody(do(h, http.MethodGet, "/records", "", ""))["count"], ShouldEqual, float64(0))
		})
	})
}

func TestExportEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		h, svc := newTestServer()
		defer svc.Stop()

		Convey("When exporting an empty store", func() {
			w := do(h, http.MethodGet, "/export", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeBody(w)["code"], ShouldEqual, "no_records")
		})

		Convey("When exporting two records", func() {
			do(h, http.MethodPost, "/lookup", "text/plain", hondaVIN)
			do(h, http.MethodPost, "/lookup", "text/plain", "1M8GDM9AXKP042788")
			w := do(h, http.MethodGet, "/export", "", "")

			Convey("Then a CSV attachment with one row per record is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="vin_records.csv"`)
				So(w.Header().Get("X-Record-Count"), ShouldEqual, "2")
				rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
			})

			Convey("Then a matching If-None-Match is answered with 304", func() {
				req := httptest.NewRequest(http.MethodGet, "/export", http.NoBody)
				req.Header.Set("If-None-Match", w.Header().Get("ETag"))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusNotModified)
			})

			Convey("Then other formats are selectable", func() {
				j := do(h, http.MethodGet, "/export?format=json", "", "")
				So(j.Code, ShouldEqual, http.StatusOK)
				So(j.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(do(h, http.MethodGet, "/export?format=parquet", "", "").Code, ShouldEqual, http.StatusOK)
				So(do(h, http.MethodGet, "/export?format=xlsx", "", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		h, svc := newTestServer()

		Convey("When the store is up", func() {
			defer svc.Stop()
			So(do(h, http.MethodGet, "/healthz", "", "").Code, ShouldEqual, http.StatusOK)

			stats := decodeBody(do(h, http.MethodGet, "/stats", "", ""))
			So(stats["started"], ShouldEqual, true)

			m := do(h, http.MethodGet, "/metrics", "", "")
			So(m.Code, ShouldEqual, http.StatusOK)
			So(m.Body.String(), ShouldContainSubstring, "vinlookup_api_http_requests_total")
		})

		Convey("When the service is stopped", func() {
			svc.Stop()
			w := do(h, http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}
