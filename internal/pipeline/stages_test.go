package pipeline

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for stage planning:
// - Select accepts every generator name case-insensitively and "all"
// - Select rejects unknown names with ErrUnknownType
// - Plan adds the stages a target depends on, before the target
// - Plan of independent targets contains only those targets
// - Plan is identical across calls

func TestSelect(t *testing.T) {
	t.Parallel()

	all, err := Select("all")
	require.NoError(t, err)
	assert.Equal(t, Generators, all)

	one, err := Select(" Events ")
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageEvents}, one)

	_, err = Select("subsystems")
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Select("telemetry")
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "objects | events | returnvalues | subservices | devicecommands | packetcontent | all")
}

func TestPlan_AddsDependencies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		targets []Stage
		want    []Stage
	}{
		{[]Stage{StageEvents}, []Stage{StageSubsystems, StageEvents}},
		{[]Stage{StageReturnValues}, []Stage{StageInterfaces, StageReturnValues}},
		{[]Stage{StageDeviceCommands}, []Stage{StageDeviceInfo, StageDeviceCommands}},
		{[]Stage{StageObjects}, []Stage{StageObjects}},
		{[]Stage{StageSubservices}, []Stage{StageSubservices}},
		{[]Stage{StagePacketContent}, []Stage{StagePacketContent}},
	}
	for _, tt := range tests {
		got, err := Plan(tt.targets)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.targets)
	}
}

func TestPlan_All(t *testing.T) {
	t.Parallel()

	plan, err := Plan(Generators)
	require.NoError(t, err)
	require.ElementsMatch(t, allStages, plan)

	for stage, deps := range dependencies {
		for _, dep := range deps {
			assert.Less(t, slices.Index(plan, dep), slices.Index(plan, stage), "%s before %s", dep, stage)
		}
	}

	again, err := Plan(Generators)
	require.NoError(t, err)
	assert.Equal(t, plan, again)
}

func TestPlan_UnknownStage(t *testing.T) {
	t.Parallel()

	_, err := Plan([]Stage{"telemetry"})
	assert.ErrorIs(t, err, ErrUnknownType)
}
