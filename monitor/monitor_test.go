package monitor

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"mkpbt/population"

	. "github.com/smartystreets/goconvey/convey"
)

func TestServeSnapshotReturnsPopulationJSON(t *testing.T) {
	Convey("GET /api/population returns the Population's current values as JSON", t, func() {
		pop := population.New(3)
		pop.Slots[1].Write(population.SlotValues{Steps: 7, Value: 42})

		m := New(":0", pop, zerolog.New(io.Discard))

		req := httptest.NewRequest(http.MethodGet, "/api/population", nil)
		rec := httptest.NewRecorder()
		m.serveSnapshot(rec, req)

		So(rec.Code, ShouldEqual, http.StatusOK)

		var values []population.SlotValues
		err := json.Unmarshal(rec.Body.Bytes(), &values)
		So(err, ShouldBeNil)
		So(values, ShouldHaveLength, 3)
		So(values[1].Value, ShouldEqual, float64(42))
		So(values[1].Steps, ShouldEqual, float64(7))
	})
}

func TestServeIndexReturnsHTML(t *testing.T) {
	Convey("GET / serves the dashboard page", t, func() {
		pop := population.New(1)
		m := New(":0", pop, zerolog.New(io.Discard))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		m.serveIndex(rec, req)

		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
		So(rec.Body.String(), ShouldContainSubstring, "mkpbt")
	})
}
