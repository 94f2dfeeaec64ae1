package grbl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusIdle(t *testing.T) {
	status, ok := ParseStatus("<Idle|MPos:0.000,0.000,0.000|FS:0,0>")
	require.True(t, ok)
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, Position{}, status.MachinePos)
	require.NotNil(t, status.FeedRate)
	assert.Equal(t, 0.0, *status.FeedRate)
	require.NotNil(t, status.SpindleSpeed)
	assert.Equal(t, 0.0, *status.SpindleSpeed)
}

func TestParseStatusRun(t *testing.T) {
	status, ok := ParseStatus("<Run|MPos:10.500,20.300,0.000|FS:1000,255|Ov:100,50,90>")
	require.True(t, ok)
	assert.Equal(t, StateRun, status.State)
	assert.Equal(t, Position{X: 10.5, Y: 20.3}, status.MachinePos)
	require.NotNil(t, status.FeedRate)
	assert.Equal(t, 1000.0, *status.FeedRate)
	require.NotNil(t, status.Overrides)
	assert.Equal(t, Overrides{Feed: 100, Rapid: 50, Spindle: 90}, *status.Overrides)
}

func TestParseStatusAbsentFieldsAreNil(t *testing.T) {
	// Absent must stay distinct from reported-as-zero: an absent
	// override triple means "unknown", not "100%".
	status, ok := ParseStatus("<Idle|MPos:1.000,2.000,3.000>")
	require.True(t, ok)
	assert.Nil(t, status.WorkPos)
	assert.Nil(t, status.WorkOffset)
	assert.Nil(t, status.FeedRate)
	assert.Nil(t, status.SpindleSpeed)
	assert.Nil(t, status.Overrides)
	assert.Nil(t, status.InputPins)
	assert.Nil(t, status.Accessories)
	assert.Nil(t, status.Buffer)
	assert.Nil(t, status.LineNumber)
}

func TestParseStatusDerivesWorkPosFromOffset(t *testing.T) {
	status, ok := ParseStatus("<Idle|MPos:100.000,50.000,0.000|WCO:10.000,5.000,0.000>")
	require.True(t, ok)
	require.NotNil(t, status.WorkPos)
	assert.Equal(t, Position{X: 90, Y: 45}, *status.WorkPos)
}

func TestParseStatusExplicitWPos(t *testing.T) {
	status, ok := ParseStatus("<Jog|MPos:5.000,5.000,0.000|WPos:4.000,3.000,0.000>")
	require.True(t, ok)
	require.NotNil(t, status.WorkPos)
	assert.Equal(t, Position{X: 4, Y: 3}, *status.WorkPos)
}

func TestParseStatusOptionalGroups(t *testing.T) {
	status, ok := ParseStatus("<Hold:0|MPos:0.000,0.000,0.000|Pn:XYP|A:SF|Bf:15,128|Ln:42|F:500.0>")
	require.True(t, ok)
	assert.Equal(t, StateHold, status.State)
	require.NotNil(t, status.InputPins)
	assert.Equal(t, "XYP", *status.InputPins)
	require.NotNil(t, status.Accessories)
	assert.Equal(t, Accessories{SpindleCW: true, FloodCoolant: true}, *status.Accessories)
	require.NotNil(t, status.Buffer)
	assert.Equal(t, BufferState{PlannerAvail: 15, RxAvail: 128}, *status.Buffer)
	require.NotNil(t, status.LineNumber)
	assert.Equal(t, 42, *status.LineNumber)
	require.NotNil(t, status.FeedRate)
	assert.Equal(t, 500.0, *status.FeedRate)
	assert.Nil(t, status.SpindleSpeed)
}

func TestParseStatusNotAReport(t *testing.T) {
	_, ok := ParseStatus("ok")
	assert.False(t, ok)
	_, ok = ParseStatus("<Idle|MPos:0,0,0")
	assert.False(t, ok)
}

func TestParseMachineState(t *testing.T) {
	assert.Equal(t, StateIdle, ParseMachineState("Idle"))
	assert.Equal(t, StateHold, ParseMachineState("Hold:0"))
	assert.Equal(t, StateDoor, ParseMachineState("Door:1"))
	assert.Equal(t, StateAlarm, ParseMachineState("Alarm"))
	assert.Equal(t, StateUnknown, ParseMachineState("Bogus"))
}
