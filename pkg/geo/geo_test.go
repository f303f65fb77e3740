package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "proximity-service/pkg/errors"
)

func TestPointFromCoords_RoundTrip(t *testing.T) {
	coords := []float64{3.91, 51.01}

	point, err := PointFromCoords(coords)
	require.NoError(t, err)
	assert.Equal(t, PointType, point.Type)

	out, err := point.Coords()
	require.NoError(t, err)
	assert.Equal(t, coords, out)
}

func TestPointFromCoords_DefensiveCopy(t *testing.T) {
	coords := []float64{3.91, 51.01}

	point, err := PointFromCoords(coords)
	require.NoError(t, err)

	// Mutating the input after conversion must not reach the point.
	coords[0] = -180.0
	assert.Equal(t, 3.91, point.Coordinates[0])

	out, err := point.Coords()
	require.NoError(t, err)

	// Nor may mutating the output reach the point.
	out[1] = -90.0
	assert.Equal(t, 51.01, point.Coordinates[1])
}

func TestPointFromCoords_WrongArity(t *testing.T) {
	tests := []struct {
		name   string
		coords []float64
	}{
		{"nil", nil},
		{"empty", []float64{}},
		{"single", []float64{3.91}},
		{"triple", []float64{3.91, 51.01, 7.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PointFromCoords(tt.coords)
			require.Error(t, err)

			var verr *pkgerrors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCoords_CorruptPoint(t *testing.T) {
	tests := []struct {
		name  string
		point Point
	}{
		{"wrong type tag", Point{Type: "Polygon", Coordinates: []float64{3.91, 51.01}}},
		{"missing coordinates", Point{Type: PointType}},
		{"wrong arity", Point{Type: PointType, Coordinates: []float64{3.91}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.point.Coords()
			require.Error(t, err)

			var cerr *pkgerrors.CorruptDataError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
