package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Test Plan for Device command extraction:
// - Stage 1 collects exported command ids and option enums per handler file
// - Enum names come from the [ENUM] payload, else the C++ enum name
// - Stage 2 resolves action ids through the handler and command id name
// - An [ENUM] field fans out into one record per option sharing one index
// - Plain fields emit one record with their [COMMENT]
// - Index restarts for every command block
// - Class blocks only match SerializeElement fields
// - Unknown handlers leave the action id blank but still emit records
// - Odd directive sequences drop the trailing token
// - IGNORE drops the field without taking a position
// - Hexadecimal enum option values are kept verbatim

func deviceInfoFixture(t *testing.T, dir string) DeviceInfoIndex {
	t.Helper()

	path := writeHeader(t, dir, "devices/PCDUHandler.h",
		"class PCDUHandler: public DeviceHandlerBase {",
		"  static const DeviceCommandId_t SWITCH_ON = 0x10; //!< [EXPORT] : [COMMAND]",
		"  static constexpr DeviceCommandId_t SET_MODE = 12; //!< [EXPORT] : [COMMAND]",
		"  static const DeviceCommandId_t INTERNAL = 0x20;",
		"  enum Switches : uint8_t { //!< [EXPORT] : [ENUM] SwitchList",
		"    HEATER = 0, //!< Heater switch",
		"    CAMERA = 1, //!< Camera switch",
		"  };",
		"  enum Modes { //!< [EXPORT] : [ENUM]",
		"    IDLE = 0,",
		"    NORMAL = 3, //!< normal operation",
		"  };",
		"};",
	)

	table, err := DeviceInfo(context.Background(), []string{path}, "", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	info, _ := table.Get(1)
	assert.Equal(t, "PCDUHandler", info.Name)
	assert.Equal(t, map[string]string{"SWITCH_ON": "0x10", "SET_MODE": "12"}, info.Commands)
	assert.Equal(t, map[string][]mib.EnumOption{
		"SwitchList": {
			{Name: "HEATER", Value: "0", Comment: "Heater switch"},
			{Name: "CAMERA", Value: "1", Comment: "Camera switch"},
		},
		"Modes": {
			{Name: "IDLE", Value: "0"},
			{Name: "NORMAL", Value: "3", Comment: "normal operation"},
		},
	}, info.Enums)

	return NewDeviceInfoIndex(table)
}

func TestDeviceInfo_CustomCommandIDType(t *testing.T) {
	t.Parallel()

	path := writeHeader(t, t.TempDir(), "Gyro.h",
		"static const ActionId_t CALIBRATE = 3; //!< [EXPORT] : [COMMAND]",
		"static const DeviceCommandId_t IGNORED = 4; //!< [EXPORT] : [COMMAND]",
	)
	table, err := DeviceInfo(context.Background(), []string{path}, "ActionId_t", Options{})
	require.NoError(t, err)

	info, _ := table.Get(1)
	assert.Equal(t, map[string]string{"CALIBRATE": "3"}, info.Commands)
}

func TestDeviceCommands_FanOutAndIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	info := deviceInfoFixture(t, dir)

	path := writeHeader(t, dir, "devicepackets/PCDUPackets.h",
		"struct SwitchCommand { //!< [EXPORT] : [COMMAND] PCDUHandler SWITCH_ON",
		"  uint8_t switchNr; //!< [EXPORT] : [ENUM] SwitchList",
		"  uint16_t delayMs; //!< [EXPORT] : [COMMENT] delay before switching",
		"  bool force;",
		"};",
		"class ModeCommand : public SerialLinkedListAdapter<SerializeIF> { //!< [EXPORT] : [COMMAND] PCDUHandler SET_MODE",
		"  uint32_t notASerializeElement;",
		"  SerializeElement<uint8_t> mode; //!< [EXPORT] : [ENUM] Modes [COMMENT] ignored for enums",
		"  SerializeElement<float> gain; //!< [EXPORT] : [COMMENT] controller gain",
		"};",
		"uint8_t outsideAnyBlock;",
	)

	table, err := DeviceCommands(context.Background(), []string{path}, info, Options{})
	require.NoError(t, err)

	switchCmd := mib.DeviceCommand{Handler: "PCDUHandler", Command: "SwitchCommand", ActionID: "0x10"}
	modeCmd := mib.DeviceCommand{Handler: "PCDUHandler", Command: "ModeCommand", ActionID: "12"}
	with := func(base mib.DeviceCommand, field string, pos int, typ, optName, optVal, comment string) mib.DeviceCommand {
		base.FieldName, base.FieldPosition, base.FieldType = field, pos, typ
		base.OptionName, base.OptionValue, base.Comment = optName, optVal, comment
		return base
	}

	assert.Equal(t, []mib.DeviceCommand{
		with(switchCmd, "switchNr", 0, "uint8_t", "HEATER", "0", "Heater switch"),
		with(switchCmd, "switchNr", 0, "uint8_t", "CAMERA", "1", "Camera switch"),
		with(switchCmd, "delayMs", 1, "uint16_t", "", "", "delay before switching"),
		with(switchCmd, "force", 2, "bool", "", "", ""),
		with(modeCmd, "mode", 0, "uint8_t", "IDLE", "0", ""),
		with(modeCmd, "mode", 0, "uint8_t", "NORMAL", "3", "normal operation"),
		with(modeCmd, "gain", 1, "float", "", "", "controller gain"),
	}, table.Records())
}

func TestDeviceCommands_UnresolvedReferences(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	info := deviceInfoFixture(t, dir)

	path := writeHeader(t, dir, "devicepackets/Misc.h",
		"struct Unknown { //!< [EXPORT] : [COMMAND] NoSuchHandler DO_IT",
		"  uint8_t value; //!< [EXPORT] : [ENUM] SwitchList",
		"};",
		"struct BadCommand { //!< [EXPORT] : [COMMAND] PCDUHandler NO_SUCH_COMMAND",
		"  int32_t offset; //!< [EXPORT] : [ENUM] NoSuchEnum [COMMENT]",
		"};",
	)

	table, err := DeviceCommands(context.Background(), []string{path}, info, Options{})
	require.NoError(t, err)

	assert.Equal(t, []mib.DeviceCommand{
		{Handler: "NoSuchHandler", Command: "Unknown", FieldName: "value", FieldType: "uint8_t"},
		{Handler: "PCDUHandler", Command: "BadCommand", FieldName: "offset", FieldType: "int32_t"},
	}, table.Records())
}

func TestCommandScan_Transitions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StructScan, NoScanning.next(structOpened))
	assert.Equal(t, ClassScan, NoScanning.next(classOpened))
	assert.Equal(t, NoScanning, NoScanning.next(blockClosed))
	assert.Equal(t, NoScanning, StructScan.next(blockClosed))
	assert.Equal(t, StructScan, ClassScan.next(structOpened))
	assert.Equal(t, "CLASS_SCAN", ClassScan.String())
}

func TestDeviceCommands_IgnoredFieldKeepsIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	info := deviceInfoFixture(t, dir)

	path := writeHeader(t, dir, "devicepackets/PCDUSpare.h",
		"struct SwitchCommand { //!< [EXPORT] : [COMMAND] PCDUHandler SWITCH_ON",
		"  uint8_t spare; //!< [EXPORT] : [IGNORE]",
		"  uint16_t delayMs; //!< [EXPORT] : [COMMENT] delay before switching",
		"};",
	)

	table, err := DeviceCommands(context.Background(), []string{path}, info, Options{})
	require.NoError(t, err)

	assert.Equal(t, []mib.DeviceCommand{
		{Handler: "PCDUHandler", Command: "SwitchCommand", ActionID: "0x10", FieldName: "delayMs",
			FieldPosition: 0, FieldType: "uint16_t", Comment: "delay before switching"},
	}, table.Records())
}

func TestDeviceInfo_HexEnumValues(t *testing.T) {
	t.Parallel()

	path := writeHeader(t, t.TempDir(), "StarTracker.h",
		"enum Regions : uint8_t { //!< [EXPORT] : [ENUM] RegionList",
		"  LOW = 0x10, //!< lower region",
		"  HIGH = 0XFF,",
		"  MID = 7, //!< middle",
		"};",
	)
	table, err := DeviceInfo(context.Background(), []string{path}, "", Options{})
	require.NoError(t, err)

	info, _ := table.Get(1)
	assert.Equal(t, []mib.EnumOption{
		{Name: "LOW", Value: "0x10", Comment: "lower region"},
		{Name: "HIGH", Value: "0XFF"},
		{Name: "MID", Value: "7", Comment: "middle"},
	}, info.Enums["RegionList"])
}
