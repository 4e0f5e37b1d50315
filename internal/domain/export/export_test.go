package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/model"
)

func records() []model.Record {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []model.Record{
		{VIN: "1HGCM82633A004352", Manufacturer: "Honda", ModelYear: "2003", Region: "North America",
			Country: "United States", PlantCode: "A", Serial: "004352", WMI: "1HG", Source: "static", DecodedAt: at},
		{VIN: "5YJ3E1EA7KF317000", Manufacturer: "TESLA", Model: "Model 3", ModelYear: "2019", BodyClass: "Sedan/Saloon",
			Region: "North America", Country: "United States", PlantCode: "F", Serial: "317000", WMI: "5YJ", Source: "vpic", DecodedAt: at},
	}
}

func TestExport(t *testing.T) {
	Convey("Given an exporter and two records", t, func() {
		e := export.New()
		recs := records()

		Convey("When exporting with the default format", func() {
			a, err := e.Export(recs, "")

			Convey("Then a CSV with a header and one row per record is produced", func() {
				So(err, ShouldBeNil)
				So(a.Format, ShouldEqual, export.FormatCSV)
				So(a.Filename, ShouldEqual, "vin_records.csv")
				So(a.ContentType, ShouldStartWith, "text/csv")
				So(a.Rows, ShouldEqual, 2)

				rows, err := csv.NewReader(bytes.NewReader(a.Data)).ReadAll()
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				So(rows[0], ShouldResemble, model.Columns)
				So(rows[1][0], ShouldEqual, "1HGCM82633A004352")
				So(rows[2][2], ShouldEqual, "Model 3")
				So(rows[1][11], ShouldEqual, "2024-05-01T12:00:00Z")
			})

			Convey("Then the ETag is stable for the same content", func() {
				again, _ := e.Export(recs, export.FormatCSV)
				So(a.ETag, ShouldEqual, again.ETag)
				So(a.ETag, ShouldStartWith, `"`)

				other, _ := e.Export(recs[:1], export.FormatCSV)
				So(other.ETag, ShouldNotEqual, a.ETag)
			})
		})

		Convey("When exporting JSON", func() {
			a, err := e.Export(recs, export.FormatJSON)
			So(err, ShouldBeNil)
			var out []model.Record
			So(json.Unmarshal(a.Data, &out), ShouldBeNil)
			So(len(out), ShouldEqual, a.Rows)
			So(out[1].BodyClass, ShouldEqual, "Sedan/Saloon")
		})

		Convey("When exporting YAML", func() {
			a, err := e.Export(recs, export.FormatYAML)
			So(err, ShouldBeNil)
			So(a.Filename, ShouldEqual, "vin_records.yaml")
			var out []map[string]any
			So(yaml.Unmarshal(a.Data, &out), ShouldBeNil)
			So(len(out), ShouldEqual, 2)
			So(out[0]["vin"], ShouldEqual, "1HGCM82633A004352")
		})

		Convey("When exporting Parquet", func() {
			a, err := e.Export(recs, export.FormatParquet)
			So(err, ShouldBeNil)
			So(a.Filename, ShouldEqual, "vin_records.parquet")

			Convey("Then the file reads back with the same rows", func() {
				out, err := parquet.Read[model.Record](bytes.NewReader(a.Data), int64(len(a.Data)))
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(out[0].VIN, ShouldEqual, "1HGCM82633A004352")
				So(out[1].Model, ShouldEqual, "Model 3")
			})
		})

		Convey("When the record set is empty", func() {
			_, err := e.Export(nil, export.FormatCSV)

			Convey("Then it fails with ErrEmpty", func() {
				So(errors.Is(err, export.ErrEmpty), ShouldBeTrue)
				So(errors.Is(err, export.ErrExport), ShouldBeTrue)
			})

			Convey("Then an exporter allowing empty output writes just the header", func() {
				a, err := export.New(export.WithAllowEmpty(true)).Export(nil, export.FormatCSV)
				So(err, ShouldBeNil)
				So(a.Rows, ShouldEqual, 0)
				rows, _ := csv.NewReader(bytes.NewReader(a.Data)).ReadAll()
				So(len(rows), ShouldEqual, 1)

				j, err := export.New(export.WithAllowEmpty(true)).Export(nil, export.FormatJSON)
				So(err, ShouldBeNil)
				So(string(j.Data), ShouldEqual, "[]")
			})
		})

		Convey("When the format is unknown", func() {
			_, err := e.Export(recs, "xlsx")
			So(errors.Is(err, export.ErrUnknownFormat), ShouldBeTrue)
			So(errors.Is(err, export.ErrExport), ShouldBeTrue)

			var ee *export.Error
			So(errors.As(err, &ee), ShouldBeTrue)
			So(ee.Format, ShouldEqual, "xlsx")
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		for in, want := range map[string]export.Format{
			"csv": export.FormatCSV, "JSON": export.FormatJSON, "yml": export.FormatYAML, " parquet ": export.FormatParquet,
		} {
			got, err := export.ParseFormat(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
		_, err := export.ParseFormat("pdf")
		So(errors.Is(err, export.ErrUnknownFormat), ShouldBeTrue)

		So(export.New(export.WithDefaultFormat(export.FormatJSON)).DefaultFormat(), ShouldEqual, export.FormatJSON)
		So(export.New(export.WithDefaultFormat("pdf")).DefaultFormat(), ShouldEqual, export.FormatCSV)
	})
}
