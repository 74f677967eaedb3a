package mib

// PacketType classifies a subservice as telecommand or telemetry.
type PacketType string

const (
	PacketTC          PacketType = "TC"
	PacketTM          PacketType = "TM"
	PacketUnspecified PacketType = "Unspecified"
)

// Object is a system object declaration (name = id).
type Object struct {
	ID   uint32
	Name string
}

// Event is a fully resolved event declaration.
type Event struct {
	ID          uint32 // subsystem id * 100 + local offset
	Name        string
	Severity    string // INFO, LOW, MEDIUM, HIGH
	Description string
	File        string // path relative to the scan root
}

// Subservice is one annotated entry of an `enum Subservice` block.
type Subservice struct {
	Service string // service number parsed from the file name, empty if unknown
	Name    string
	Number  int
	Type    PacketType
	Comment string
}

// DeviceCommand is one command field (or one selectable option of an
// enumerated command field) of a device handler command packet.
type DeviceCommand struct {
	Handler       string
	Command       string
	ActionID      string // blank when the handler or command is not resolvable
	FieldName     string
	FieldPosition int
	FieldType     string
	OptionName    string
	OptionValue   string
	Comment       string
}

// ReturnValue is a composite return code.
type ReturnValue struct {
	Code        uint16 // class id << 8 | local code
	Name        string
	Interface   string
	File        string
	Description string
}

// PacketField is one field of a service packet definition.
type PacketField struct {
	Service    string
	Subservice string
	Packet     string
	Datatype   string
	Name       string
	Size       string // byte width, "deduced", or blank
	Comment    string
}

// Subsystem is a named event id range.
type Subsystem struct {
	Name string
	ID   int
}

// Interface is a named return value class id.
type Interface struct {
	Name    string
	ID      int
	Comment string
}

// EnumOption is a single value of a device handler enum.
type EnumOption struct {
	Name    string
	Value   string
	Comment string
}

// HandlerInfo is the per device handler result of the device information pass.
type HandlerInfo struct {
	Name     string
	Commands map[string]string       // command name -> command id
	Enums    map[string][]EnumOption // enum name -> options in declaration order
}
