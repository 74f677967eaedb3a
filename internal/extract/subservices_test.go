package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Test Plan for Subservice extraction:
// - Same-line directives with the enum opening and closing on data lines
// - Own-line directives carried to the next assignment
// - Free text comment lines accumulate into the next record comment
// - Unannotated assignments are skipped and clear the comment buffer
// - IGNORE drops the record, own-line or same-line
// - A pending directive before `};` is dropped
// - A closing `};` followed by a comment still leaves the enum
// - Lines outside `enum Subservice` are never scanned

func runSubservices(t *testing.T, name string, lines ...string) []mib.Subservice {
	t.Helper()
	path := writeHeader(t, t.TempDir(), name, lines...)
	table, err := Subservices(context.Background(), []string{path}, Options{})
	require.NoError(t, err)
	assert.Equal(t, table.Len(), len(table.Keys()))
	return table.Records()
}

func TestSubservices_SameLineDirectives(t *testing.T) {
	t.Parallel()

	got := runSubservices(t, "Service17Test.h",
		"enum Subservice : uint8_t { A = 1, //!< [EXPORT]:[COMMAND] desc",
		"B = 2 //!< [EXPORT]:[REPLY] desc2 };",
		"C = 3, //!< [EXPORT]:[COMMAND] outside",
	)

	assert.Equal(t, []mib.Subservice{
		{Service: "17", Name: "A", Number: 1, Type: mib.PacketTC, Comment: "desc"},
		{Service: "17", Name: "B", Number: 2, Type: mib.PacketTM, Comment: "desc2"},
	}, got)
}

func TestSubservices_OwnLineDirectivesAndComments(t *testing.T) {
	t.Parallel()

	got := runSubservices(t, "Service8FunctionManagement.h",
		"class Service8 {",
		"  enum Subservice: uint8_t {",
		"    //!< [EXPORT] : [COMMAND] Perform",
		"    //! a functional command",
		"    COMMAND_DIRECT_COMMANDING = 128,",
		"    //! Reply to a",
		"    //! direct command",
		"    //!< [EXPORT] : [REPLY]",
		"    REPLY_DIRECT_COMMANDING_DATA = 130,",
		"    //! not exported",
		"    PLAIN = 131,",
		"    TYPELESS = 132, //!< [EXPORT] : [COMMENT] no type tag",
		"  };",
		"};",
	)

	assert.Equal(t, []mib.Subservice{
		{Service: "8", Name: "COMMAND_DIRECT_COMMANDING", Number: 128, Type: mib.PacketTC, Comment: "Perform a functional command"},
		{Service: "8", Name: "REPLY_DIRECT_COMMANDING_DATA", Number: 130, Type: mib.PacketTM, Comment: "Reply to a direct command"},
		{Service: "8", Name: "TYPELESS", Number: 132, Type: mib.PacketUnspecified, Comment: "no type tag"},
	}, got)
}

func TestSubservices_IgnoreAndDroppedAnnotation(t *testing.T) {
	t.Parallel()

	got := runSubservices(t, "Service5EventReporting.h",
		"enum Subservice : uint8_t {",
		"  //! [EXPORT] : [IGNORE]",
		"  HIDDEN = 1,",
		"  ALSO_HIDDEN = 2, //!< [EXPORT] : [COMMAND] [IGNORE]",
		"  SHOWN = 3, //!< [EXPORT] : [TC] shown",
		"  //! [EXPORT] : [COMMAND] never consumed",
		"};",
		"enum Other { X = 4, //!< [EXPORT] : [COMMAND] not a subservice",
		"};",
	)

	assert.Equal(t, []mib.Subservice{
		{Service: "5", Name: "SHOWN", Number: 3, Type: mib.PacketTC, Comment: "shown"},
	}, got)
}

func TestSubservices_ServiceMissingFromFileName(t *testing.T) {
	t.Parallel()

	got := runSubservices(t, "Distributor.h",
		"enum Subservice {",
		"  PING = 1, //!< [EXPORT] : [TC] ping",
		"};",
	)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Service)
}

func TestSubservices_ClosingLineWithTrailingComment(t *testing.T) {
	t.Parallel()

	got := runSubservices(t, "Service17Test.h",
		"enum Subservice : uint8_t {",
		"  PING = 1, //!< [EXPORT] : [TC] ping",
		"}; // Subservice",
		"enum Other {",
		"  NOT_A_SUBSERVICE = 9, //!< [EXPORT] : [COMMAND] leaked",
		"};",
	)

	assert.Equal(t, []mib.Subservice{
		{Service: "17", Name: "PING", Number: 1, Type: mib.PacketTC, Comment: "ping"},
	}, got)
}
