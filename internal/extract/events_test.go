package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Test Plan for Subsystem and Event extraction:
// - Subsystem ids support explicit, implicit and aliased values across files
// - Events compose subsystem * 100 + offset
// - Declarations split across lines inside the window are joined
// - Trailing //!< comments win over the doxygen block above
// - Unknown subsystem or missing subsystem assignment drops events
// - A duplicate full id keeps the later declaration in place
// - A declaration cut off by the end of file is dropped without error

func subsystemFixture(t *testing.T, dir string) SubsystemIndex {
	t.Helper()

	fw := writeHeader(t, dir, "fwSubsystemIdRanges.h",
		"namespace SUBSYSTEM_ID {",
		"enum : uint8_t {",
		"  MEMORY = 22,",
		"  OBSW = 26,",
		"  CDH, //!< command and data handling",
		"  FW_SUBSYSTEM_ID_RANGE",
		"};",
		"}",
	)
	common := writeHeader(t, dir, "commonSubsystemIds.h",
		"namespace SUBSYSTEM_ID {",
		"enum commonSubsystemId : uint8_t {",
		"  COMMON_SUBSYSTEM_ID_START = FW_SUBSYSTEM_ID_RANGE,",
		"  PUS_SERVICE_2 = 82,",
		"};",
		"}",
	)

	table, err := Subsystems(context.Background(), []string{fw, common}, Options{})
	require.NoError(t, err)
	require.Equal(t, []mib.Subsystem{
		{Name: "MEMORY", ID: 22},
		{Name: "OBSW", ID: 26},
		{Name: "CDH", ID: 27},
		{Name: "FW_SUBSYSTEM_ID_RANGE", ID: 28},
		{Name: "COMMON_SUBSYSTEM_ID_START", ID: 28},
		{Name: "PUS_SERVICE_2", ID: 82},
	}, table.Records())

	return NewSubsystemIndex(table)
}

func TestEvents_ComposeIDsAndDescriptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subsystems := subsystemFixture(t, dir)

	events := writeHeader(t, dir, "src/StorageManager.h",
		"class StorageManager {",
		"public:",
		"  static const uint8_t SUBSYSTEM_ID = SUBSYSTEM_ID::MEMORY;",
		"  static const Event STORE_SEND_WRITE_FAILED = MAKE_EVENT(0, severity::LOW); //!< Sending write failed",
		"  /**",
		"   * @brief Reading from the store failed.",
		"   * P1: error code",
		"   */",
		"  static constexpr Event STORE_READ_FAILED =",
		"      MAKE_EVENT(2, severity::MEDIUM);",
		"  //! Uses the newer helper",
		"  static constexpr Event STORE_FULL = event::makeEvent(SUBSYSTEM_ID, 3, severity::HIGH);",
		"};",
	)

	table, err := Events(context.Background(), []string{events}, subsystems, 0, Options{Root: dir})
	require.NoError(t, err)

	assert.Equal(t, []mib.Event{
		{ID: 2200, Name: "STORE_SEND_WRITE_FAILED", Severity: "LOW", Description: "Sending write failed", File: "src/StorageManager.h"},
		{ID: 2202, Name: "STORE_READ_FAILED", Severity: "MEDIUM", Description: "Reading from the store failed. P1: error code", File: "src/StorageManager.h"},
		{ID: 2203, Name: "STORE_FULL", Severity: "HIGH", Description: "Uses the newer helper", File: "src/StorageManager.h"},
	}, table.Records())
}

func TestEvents_SubsystemResolution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subsystems := subsystemFixture(t, dir)

	noSubsystem := writeHeader(t, dir, "a.h",
		"static const Event ORPHAN = MAKE_EVENT(1, severity::INFO);",
	)
	unknown := writeHeader(t, dir, "b.h",
		"static const uint8_t SUBSYSTEM_ID = SUBSYSTEM_ID::NOT_THERE;",
		"static const Event LOST = MAKE_EVENT(1, severity::INFO);",
	)
	numeric := writeHeader(t, dir, "c.h",
		"static const uint8_t SUBSYSTEM_ID = 50;",
		"static const Event FOUND = MAKE_EVENT(4, severity::INFO);",
	)

	table, err := Events(context.Background(), []string{noSubsystem, unknown, numeric}, subsystems, 7, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	ev, _ := table.Get(1)
	assert.Equal(t, uint32(5004), ev.ID)
	assert.Equal(t, "FOUND", ev.Name)
	assert.Equal(t, filepath.ToSlash(numeric), ev.File)
}

func TestEvents_DuplicateIDLastWriteWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subsystems := subsystemFixture(t, dir)

	path := writeHeader(t, dir, "dup.h",
		"static const uint8_t SUBSYSTEM_ID = SUBSYSTEM_ID::OBSW;",
		"static const Event FIRST = MAKE_EVENT(1, severity::LOW);",
		"static const Event OTHER = MAKE_EVENT(2, severity::LOW);",
		"static const Event SECOND = MAKE_EVENT(1, severity::HIGH);",
	)

	table, err := Events(context.Background(), []string{path}, subsystems, 7, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, table.Keys())
	first, _ := table.Get(1)
	assert.Equal(t, "SECOND", first.Name)
	assert.Equal(t, uint32(2601), first.ID)
}

func TestEvents_IncompleteAtEndOfFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subsystems := subsystemFixture(t, dir)

	path := writeHeader(t, dir, "cut.h",
		"static const uint8_t SUBSYSTEM_ID = SUBSYSTEM_ID::CDH;",
		"static const Event COMPLETE = MAKE_EVENT(0, severity::LOW);",
		"static const Event CUT =",
		"    MAKE_EVENT(1,",
	)

	table, err := Events(context.Background(), []string{path}, subsystems, 7, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	ev, _ := table.Get(1)
	assert.Equal(t, "COMPLETE", ev.Name)
}
