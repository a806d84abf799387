package metric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(s string) json.Number { return json.Number(s) }

var gib = float64(int64(1) << 30)

func TestClassifyBasicShapes(t *testing.T) {
	s, err := Classify("enabled", true)
	require.NoError(t, err)
	assert.Equal(t, TypeSwitch, s.Type)
	assert.Equal(t, int64(1), s.Int)

	s, err = Classify("timestamp", nil)
	require.NoError(t, err)
	assert.Equal(t, TypeNull, s.Type)
}

func TestClassifyBytes(t *testing.T) {
	s, err := Classify("store", num("2048"))
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(2048), s.Int)

	s, err = Classify("store", "443.2gb")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(443.2*gib), s.Int)

	s, err = Classify("store", "475894423552")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.EqualValues(t, 475894423552, s.Int)
}

func TestClassifyKilobytes(t *testing.T) {
	s, err := Classify("kilobytes", num("4"))
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(4096), s.Int)
}

func TestClassifyDroppedSuffixes(t *testing.T) {
	for _, suffix := range []string{"installed", "jdk", "pid", "date", "epoch", "timestamp", "uptime"} {
		s, err := Classify(suffix, num("123"))
		require.NoError(t, err)
		assert.Equal(t, TypeNull, s.Type, suffix)
	}
}

func TestClassifyTime(t *testing.T) {
	s, err := Classify("millis", num("10"))
	require.NoError(t, err)
	assert.Equal(t, TypeTime, s.Type)
	assert.Equal(t, int64(10), s.Int)
}

func TestClassifyNumberDefault(t *testing.T) {
	s, err := Classify("whatever", num("22"))
	require.NoError(t, err)
	assert.Equal(t, TypeGauge, s.Type)
	assert.Equal(t, int64(22), s.Int)

	s, err = Classify("whatever", num("1.13"))
	require.NoError(t, err)
	assert.Equal(t, TypeGaugeF, s.Type)
	assert.InDelta(t, 1.13, s.Float, 0.0001)
}

func TestClassifyStringSwitch(t *testing.T) {
	s, err := Classify("tripped", "true")
	require.NoError(t, err)
	assert.Equal(t, TypeSwitch, s.Type)
	assert.Equal(t, int64(1), s.Int)

	s, err = Classify("tripped", "false")
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Int)
}

func TestClassifyDataFallback(t *testing.T) {
	s, err := Classify("data", "100")
	require.NoError(t, err)
	assert.Equal(t, TypeGauge, s.Type)
	assert.Equal(t, int64(100), s.Int)

	s, err = Classify("data", "/var/lib/elasticsearch/m1/nodes/0")
	require.NoError(t, err)
	assert.Equal(t, TypeLabel, s.Type)
	assert.Equal(t, "/var/lib/elasticsearch/m1/nodes/0", s.Str)
}

func TestClassifySize(t *testing.T) {
	s, err := Classify("size", "1000")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(1000), s.Int)

	s, err = Classify("size", "12kb")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(12*1024), s.Int)
}

func TestClassifyDiskTotal(t *testing.T) {
	s, err := Classify("disk_total", "475894423552")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.EqualValues(t, 475894423552, s.Int)

	s, err = Classify("disk_total", "443.2gb")
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, s.Type)
	assert.Equal(t, int64(443.2*gib), s.Int)
}

func TestClassifyIntGauge(t *testing.T) {
	s, err := Classify("docs", "100")
	require.NoError(t, err)
	assert.Equal(t, TypeGauge, s.Type)
	assert.Equal(t, int64(100), s.Int)
}

func TestClassifyFloatGaugePercent(t *testing.T) {
	s, err := Classify("percent", "3.44%")
	require.NoError(t, err)
	assert.Equal(t, TypeGaugeF, s.Type)
	assert.InDelta(t, 3.44, s.Float, 0.0001)
}

func TestClassifyLabel(t *testing.T) {
	s, err := Classify("index", "orders")
	require.NoError(t, err)
	assert.Equal(t, TypeLabel, s.Type)
	assert.Equal(t, "orders", s.Str)
}

func TestClassifyCatchAllLabel(t *testing.T) {
	s, err := Classify("something_unlisted", "value-here")
	require.NoError(t, err)
	assert.Equal(t, TypeLabel, s.Type)
	assert.Equal(t, "value-here", s.Str)
}

func TestClassifyIntGaugeParseErrorIsDropped(t *testing.T) {
	_, err := Classify("docs", "not-a-number")
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrParseInt, merr.Kind)
}
