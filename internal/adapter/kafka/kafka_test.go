package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakescope/globe-data-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 10, 0, 0, time.UTC)
	event := domain.GeoEvent{
		ID:          "us7000abcd",
		Kind:        domain.KindEarthquake,
		Name:        "120km SSE of Sand Point, Alaska",
		Geo:         domain.Geo{Lat: 54.317, Lon: -160.512},
		Earthquake:  &domain.EarthquakeDetails{Magnitude: 5.4},
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("us7000abcd"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"earthquake"`)
	assert.Contains(t, string(msg.Value), `"magnitude":5.4`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("earthquake"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_VolcanoOmitsQuakeDetails(t *testing.T) {
	event := domain.GeoEvent{
		ID:      "gvp-211060",
		Kind:    domain.KindVolcano,
		Name:    "Etna",
		Volcano: &domain.VolcanoDetails{Number: "211060", Country: "Italy"},
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), `"earthquake"`)
	assert.Contains(t, string(msg.Value), `"volcano"`)
}
