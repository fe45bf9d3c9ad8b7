package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRows = "1600000000,1000,10,1.5,45.1,6.1\n" +
	"1600000001,1200,12,-0.5,45.2,6.2\n" +
	"1600000002,900,8,2.25,45.3,6.3\n"

func TestParseSampleRows(t *testing.T) {
	table, err := Parse(sampleRows, LayoutAuto)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []int64{1600000000, 1600000001, 1600000002}, table.Time)
	assert.Equal(t, []float64{1000, 1200, 900}, table.Altitude)
	assert.Equal(t, []float64{6.1, 6.2, 6.3}, table.Longitude)
	assert.Equal(t, 1200.0, table.MaxAltitude())
}

func TestParseSeriesLines(t *testing.T) {
	// One line per column with a trailing comma, as the logbook stores it.
	blob := "1600000000,1600000001,1600000002,\n" +
		"1000,1200,900,\n" +
		"10,12,8,\n" +
		"1.5,-0.5,2.25,\n" +
		"45.1,45.2,45.3,\n" +
		"6.1,6.2,6.3,\n"

	table, err := Parse(blob, LayoutAuto)
	require.NoError(t, err)

	fromRows, err := Parse(sampleRows, LayoutSamples)
	require.NoError(t, err)
	assert.Equal(t, fromRows, table)
}

func TestParseSeriesOfSixSamples(t *testing.T) {
	// Six samples make six fields per line once the trailing comma goes.
	blob := "1600000000,1600000001,1600000002,1600000003,1600000004,1600000005,\n" +
		"1000,1010,1020,1030,1040,1050,\n" +
		"10,11,12,13,14,15,\n" +
		"0.1,0.2,0.3,0.4,0.5,0.6,\n" +
		"45.1,45.2,45.3,45.4,45.5,45.6,\n" +
		"6.1,6.2,6.3,6.4,6.5,6.6,\n"

	table, err := Parse(blob, LayoutAuto)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
	assert.Equal(t, []int64{1600000000, 1600000001, 1600000002, 1600000003, 1600000004, 1600000005}, table.Time)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, table.Vario)
}

func TestParseSixSampleRows(t *testing.T) {
	// Six rows without trailing delimiters stay samples.
	table, err := Parse(sampleRows+sampleRows, LayoutAuto)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
	assert.Equal(t, 1200.0, table.Altitude[4])
}

func TestColumnsStayAligned(t *testing.T) {
	table, err := Parse(sampleRows, LayoutSamples)
	require.NoError(t, err)

	for c := 0; c < NumColumns; c++ {
		assert.Len(t, table.Column(c), table.Len(), "column %d", c)
	}
	s := table.Sample(1)
	assert.Equal(t, Sample{Time: 1600000001, Altitude: 1200, Speed: 12, Vario: -0.5, Latitude: 45.2, Longitude: 6.2}, s)
}

func TestParseRejectsNonNumeric(t *testing.T) {
	_, err := Parse("1600000000,high,10,1.5,45.1,6.1\n", LayoutSamples)
	assert.Error(t, err)
}

func TestParseSeriesWrongRowCount(t *testing.T) {
	_, err := Parse("1,2,3\n4,5,6\n", LayoutSeries)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	single, err := Parse("1600000000,1000,10,1.5,45.1,6.1\n", LayoutSamples)
	require.NoError(t, err)
	assert.ErrorIs(t, single.Validate(), ErrTooFewSamples)

	empty, err := Parse("", LayoutAuto)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0.0, empty.MaxAltitude())

	full, err := Parse(sampleRows, LayoutSamples)
	require.NoError(t, err)
	assert.NoError(t, full.Validate())
}

func TestEncodeRoundTrip(t *testing.T) {
	samples := []Sample{
		{Time: 1600000000, Altitude: 1000, Speed: 10, Vario: 1.5, Latitude: 45.1, Longitude: 6.1},
		{Time: 1600000001, Altitude: 1200, Speed: 12, Vario: -0.5, Latitude: 45.2, Longitude: 6.2},
	}
	blob, err := Encode(samples)
	require.NoError(t, err)

	table, err := Parse(blob, LayoutSamples)
	require.NoError(t, err)
	assert.Equal(t, FromSamples(samples), table)
}
