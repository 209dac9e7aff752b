package geo

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineFeature(name string, points ...[]float64) LineFeature {
	return LineFeature{
		Name:       name,
		Properties: map[string]any{"Name": name, "Source": "PB2002"},
		Points:     points,
	}
}

func TestSegmentAntimeridian_NoCrossingIsIdentity(t *testing.T) {
	in := lineFeature("nazca-south_american",
		[]float64{-75.5, -10.2}, []float64{-74.8, -12.9}, []float64{-73.1, -15.0})

	segments, errs := SegmentAntimeridian([]LineFeature{in})

	require.Empty(t, errs)
	require.Len(t, segments, 1)
	assert.Equal(t, in.Name, segments[0].Name)
	if diff := cmp.Diff(in.Points, segments[0].Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentAntimeridian_DegenerateFeatures(t *testing.T) {
	t.Run("empty feature", func(t *testing.T) {
		segments, errs := SegmentAntimeridian([]LineFeature{{Name: "empty"}})
		assert.Empty(t, errs)
		assert.Empty(t, segments)
	})

	t.Run("single point", func(t *testing.T) {
		segments, errs := SegmentAntimeridian([]LineFeature{
			lineFeature("dot", []float64{10, 20}),
		})
		assert.Empty(t, errs)
		assert.Empty(t, segments)
	})

	t.Run("empty input slice", func(t *testing.T) {
		segments, errs := SegmentAntimeridian(nil)
		assert.Empty(t, errs)
		assert.Empty(t, segments)
	})
}

func TestSegmentAntimeridian_TwoPointCrossingDropsBoth(t *testing.T) {
	// |179 - (-179)| = 358 > 180: the crossing splits the feature into two
	// one-point pieces, both of which are dropped.
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("pacific", []float64{179, 0}, []float64{-179, 0}),
	})

	assert.Empty(t, errs)
	assert.Empty(t, segments)
}

func TestSegmentAntimeridian_CrossingStartsNewSegment(t *testing.T) {
	// First pair crosses (|170-(-170)| = 340), leaving a 1-point segment that
	// is dropped; the second pair (10° apart) survives as one segment.
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("aleutian",
			[]float64{170, 0}, []float64{-170, 0}, []float64{-160, 0}),
	})

	require.Empty(t, errs)
	require.Len(t, segments, 1)
	assert.Equal(t, [][]float64{{-170, 0}, {-160, 0}}, segments[0].Points)
}

func TestSegmentAntimeridian_MidlineCrossingSplitsInTwo(t *testing.T) {
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("kermadec",
			[]float64{175, -20}, []float64{179, -21},
			[]float64{-178, -22}, []float64{-174, -23}),
	})

	require.Empty(t, errs)
	require.Len(t, segments, 2)
	assert.Equal(t, [][]float64{{175, -20}, {179, -21}}, segments[0].Points)
	assert.Equal(t, [][]float64{{-178, -22}, {-174, -23}}, segments[1].Points)
}

func TestSegmentAntimeridian_ExactlyStraddling180IsNotACrossing(t *testing.T) {
	// The threshold is strict: a jump of exactly 180° keeps the run intact.
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("meridian", []float64{-90, 0}, []float64{90, 0}),
	})

	require.Empty(t, errs)
	require.Len(t, segments, 1)
	assert.Len(t, segments[0].Points, 2)
}

func TestSegmentAntimeridian_NormalizesInput(t *testing.T) {
	// 181 normalizes to -179, so the pair sits 2° apart: no crossing.
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("wrapped", []float64{181, 5}, []float64{-177, 5}),
	})

	require.Empty(t, errs)
	require.Len(t, segments, 1)
	assert.Equal(t, [][]float64{{-179, 5}, {-177, 5}}, segments[0].Points)
}

func TestSegmentAntimeridian_DoesNotMutateInput(t *testing.T) {
	in := lineFeature("wrapped", []float64{181, 5}, []float64{-177, 5})

	_, errs := SegmentAntimeridian([]LineFeature{in})

	require.Empty(t, errs)
	assert.Equal(t, 181.0, in.Points[0][0], "input longitude must not be normalized in place")
}

func TestSegmentAntimeridian_MetadataCopiedPerSegment(t *testing.T) {
	in := lineFeature("kermadec",
		[]float64{175, -20}, []float64{179, -21},
		[]float64{-178, -22}, []float64{-174, -23})

	segments, errs := SegmentAntimeridian([]LineFeature{in})

	require.Empty(t, errs)
	require.Len(t, segments, 2)
	for _, s := range segments {
		assert.Equal(t, in.Properties, s.Properties)
	}

	// Copies, not aliases: mutating one segment's properties leaks nowhere.
	segments[0].Properties["Source"] = "edited"
	assert.Equal(t, "PB2002", in.Properties["Source"])
	assert.Equal(t, "PB2002", segments[1].Properties["Source"])
}

func TestSegmentAntimeridian_ElevationCarriedThrough(t *testing.T) {
	segments, errs := SegmentAntimeridian([]LineFeature{
		lineFeature("ridge", []float64{10, 20, -2400}, []float64{11, 21, -2500}),
	})

	require.Empty(t, errs)
	require.Len(t, segments, 1)
	assert.Equal(t, -2400.0, segments[0].Points[0][2])
}

func TestSegmentAntimeridian_MalformedFeatureIsolated(t *testing.T) {
	good := lineFeature("good", []float64{10, 20}, []float64{11, 21})
	short := lineFeature("short", []float64{10, 20}, []float64{11})
	nan := lineFeature("nan", []float64{math.NaN(), 0}, []float64{1, 1})

	segments, errs := SegmentAntimeridian([]LineFeature{short, good, nan})

	require.Len(t, segments, 1)
	assert.Equal(t, "good", segments[0].Name)

	require.Len(t, errs, 2)
	assert.Equal(t, 0, errs[0].Index)
	assert.Contains(t, errs[0].Error(), "feature 0")
	assert.Equal(t, 2, errs[1].Index)
	assert.Contains(t, errs[1].Error(), "non-finite")
}
