package usgs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/observability"
)

const sampleFeed = `{
  "type": "FeatureCollection",
  "features": [
    {
      "id": "us7000abcd",
      "properties": {"mag": 5.4, "place": "120km SSE of Sand Point, Alaska", "time": 1718400000000, "magType": "mww", "tsunami": 0, "url": "https://earthquake.usgs.gov/earthquakes/eventpage/us7000abcd"},
      "geometry": {"type": "Point", "coordinates": [-160.512, 54.317, 32.6]}
    },
    {
      "id": "us7000wxyz",
      "properties": {"mag": 2.1, "place": "8km NW of Cobb, CA", "time": 1718403600000, "magType": "md", "tsunami": 0},
      "geometry": {"type": "Point", "coordinates": [-122.759, 38.841, 1.8]}
    }
  ]
}`

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchQuakes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	events, featureErrs, err := newTestClient(srv.URL).FetchQuakes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, featureErrs)
	require.Len(t, events, 2)

	assert.Equal(t, "us7000abcd", events[0].ID)
	assert.Equal(t, domain.KindEarthquake, events[0].Kind)
	assert.Equal(t, 54.317, events[0].Geo.Lat)
	require.NotNil(t, events[0].Earthquake)
	assert.Equal(t, 5.4, events[0].Earthquake.Magnitude)
	assert.Equal(t, 32.6, events[0].Earthquake.DepthKM)
}

func TestClient_FetchQuakes_MalformedFeatureIsolated(t *testing.T) {
	feed := `{"features":[
		{"id":"bad","properties":{"mag":1.0,"place":"x","time":1},"geometry":{"type":"Point","coordinates":[0]}},
		{"id":"good","properties":{"mag":3.0,"place":"y","time":1718400000000},"geometry":{"type":"Point","coordinates":[10,20,5]}}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	events, featureErrs, err := newTestClient(srv.URL).FetchQuakes(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "good", events[0].ID)
	require.Len(t, featureErrs, 1)
	assert.Equal(t, 0, featureErrs[0].Index)
}

func TestClient_FetchQuakes_UnparseablePayloadIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).FetchQuakes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse quake feed")
}

func TestClient_FetchQuakes_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).FetchQuakes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usgs fetch")
}
