package grbl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBuildJog(t *testing.T) {
	assert.Equal(t, "$J=G91 X10.000 F1000.000\n", BuildJog(f(10), nil, nil, 1000, true))
	assert.Equal(t, "$J=G90 X-5.000 Y5.000 F500.000\n", BuildJog(f(-5), f(5), nil, 500, false))
	assert.Equal(t, "$J=G91 Z-1.500 F100.000\n", BuildJog(nil, nil, f(-1.5), 100, true))
}

func TestParseLine(t *testing.T) {
	assert.Equal(t, response{kind: respOk}, parseLine("ok"))
	assert.Equal(t, response{kind: respError, code: 20}, parseLine("error:20"))
	assert.Equal(t, response{kind: respAlarm, code: 1}, parseLine("ALARM:1"))
	assert.Equal(t, respStatus, parseLine("<Idle|MPos:0.000,0.000,0.000>").kind)
	assert.Equal(t, response{kind: respMessage, text: "Reset to continue"}, parseLine("[MSG:Reset to continue]"))
	assert.Equal(t, respWelcome, parseLine("Grbl 1.1h ['$' for help]").kind)
	assert.Equal(t, response{kind: respSetting, code: 110, text: "1000.000"}, parseLine("$110=1000.000"))
	assert.Equal(t, response{kind: respFeedback, text: "[GC:G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0]"}, parseLine("[GC:G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0]"))

	// Lines matching no known shape are classified, not rejected.
	assert.Equal(t, respOther, parseLine("garbage %!@").kind)
	assert.Equal(t, respOther, parseLine("error:not-a-number").kind)
	assert.Equal(t, respOther, parseLine("").kind)
}

func TestParseLineTrimsWhitespace(t *testing.T) {
	assert.Equal(t, respOk, parseLine("  ok\r").kind)
}

func TestBuildFrameDynamic(t *testing.T) {
	lines := BuildFrame(FrameBounds{XMin: 0, XMax: 10, YMin: 0, YMax: 20}, 1500, 100, UnitsMM, FrameDynamic)
	require.Equal(t, []string{
		"G21",
		"M4 S100",
		"G90",
		"G0 X0.000 Y0.000",
		"G1 X10.000 Y0.000 F1500.000",
		"G1 X10.000 Y20.000",
		"G1 X0.000 Y20.000",
		"G1 X0.000 Y0.000",
		"M5",
	}, lines)
}

func TestBuildFrameModes(t *testing.T) {
	constant := BuildFrame(FrameBounds{XMax: 1, YMax: 1}, 100, 50, UnitsMM, FrameConstant)
	assert.Equal(t, "M3 S50", constant[1])

	off := BuildFrame(FrameBounds{XMax: 1, YMax: 1}, 100, 50, UnitsMM, FrameOff)
	assert.Equal(t, "M5", off[1])

	inch := BuildFrame(FrameBounds{XMax: 1, YMax: 1}, 100, 50, UnitsInch, FrameOff)
	assert.Equal(t, "G20", inch[0])
}

func TestBuildFrameNormalizesInvertedBounds(t *testing.T) {
	lines := BuildFrame(FrameBounds{XMin: 10, XMax: 0, YMin: 20, YMax: 0}, 100, 0, UnitsMM, FrameOff)
	assert.Equal(t, "G0 X0.000 Y0.000", lines[3])
	assert.Equal(t, "G1 X10.000 Y0.000 F100.000", lines[4])
}

func TestOverrideBytes(t *testing.T) {
	cases := []struct {
		adjust OverrideAdjust
		feed   byte
		spin   byte
	}{
		{OverrideReset, 0x90, 0x99},
		{OverrideCoarsePlus, 0x91, 0x9A},
		{OverrideCoarseMinus, 0x92, 0x9B},
		{OverrideFinePlus, 0x93, 0x9C},
		{OverrideFineMinus, 0x94, 0x9D},
	}
	for _, tc := range cases {
		b, ok := feedOverrideByte(tc.adjust)
		require.True(t, ok)
		assert.Equal(t, tc.feed, b)

		b, ok = spindleOverrideByte(tc.adjust)
		require.True(t, ok)
		assert.Equal(t, tc.spin, b)
	}

	_, ok := feedOverrideByte(OverrideAdjust("bogus"))
	assert.False(t, ok)
}

func TestRapidOverrideBytes(t *testing.T) {
	b, ok := rapidOverrideByte(RapidFull)
	require.True(t, ok)
	assert.Equal(t, byte(0x95), b)

	b, ok = rapidOverrideByte(RapidHalf)
	require.True(t, ok)
	assert.Equal(t, byte(0x96), b)

	b, ok = rapidOverrideByte(RapidQuarter)
	require.True(t, ok)
	assert.Equal(t, byte(0x97), b)

	_, ok = rapidOverrideByte(RapidPreset("75"))
	assert.False(t, ok)
}
