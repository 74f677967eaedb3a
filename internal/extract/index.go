package extract

import (
	"maps"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// SubsystemIndex maps subsystem names to their base id. It is built once
// from a completed table and only read afterwards.
type SubsystemIndex struct {
	ids map[string]int
}

// NewSubsystemIndex snapshots a subsystem table. Later definitions of the
// same name win.
func NewSubsystemIndex(t *mib.Table[mib.Subsystem]) SubsystemIndex {
	ids := make(map[string]int, t.Len())
	for _, s := range t.All() {
		ids[s.Name] = s.ID
	}
	return SubsystemIndex{ids: ids}
}

// Lookup returns the id of a subsystem.
func (x SubsystemIndex) Lookup(name string) (int, bool) {
	id, ok := x.ids[name]
	return id, ok
}

// Len returns the number of subsystems.
func (x SubsystemIndex) Len() int { return len(x.ids) }

// InterfaceIndex maps interface (class id) names to their id.
type InterfaceIndex struct {
	ids map[string]int
}

// NewInterfaceIndex snapshots an interface table.
func NewInterfaceIndex(t *mib.Table[mib.Interface]) InterfaceIndex {
	ids := make(map[string]int, t.Len())
	for _, i := range t.All() {
		ids[i.Name] = i.ID
	}
	return InterfaceIndex{ids: ids}
}

// Lookup returns the class id of an interface.
func (x InterfaceIndex) Lookup(name string) (int, bool) {
	id, ok := x.ids[name]
	return id, ok
}

// Len returns the number of interfaces.
func (x InterfaceIndex) Len() int { return len(x.ids) }

// DeviceInfoIndex holds the command ids and enums of every device handler.
type DeviceInfoIndex struct {
	handlers map[string]mib.HandlerInfo
}

// NewDeviceInfoIndex snapshots a device information table, deep copying the
// per-handler maps so later changes to the table cannot leak in.
func NewDeviceInfoIndex(t *mib.Table[mib.HandlerInfo]) DeviceInfoIndex {
	handlers := make(map[string]mib.HandlerInfo, t.Len())
	for _, h := range t.All() {
		enums := make(map[string][]mib.EnumOption, len(h.Enums))
		for name, options := range h.Enums {
			enums[name] = append([]mib.EnumOption(nil), options...)
		}
		handlers[h.Name] = mib.HandlerInfo{
			Name:     h.Name,
			Commands: maps.Clone(h.Commands),
			Enums:    enums,
		}
	}
	return DeviceInfoIndex{handlers: handlers}
}

// Has reports whether a handler is known.
func (x DeviceInfoIndex) Has(handler string) bool {
	_, ok := x.handlers[handler]
	return ok
}

// CommandID resolves a command name of a handler to its action id.
func (x DeviceInfoIndex) CommandID(handler, command string) (string, bool) {
	h, ok := x.handlers[handler]
	if !ok {
		return "", false
	}
	id, ok := h.Commands[command]
	return id, ok
}

// Enum returns the options of a handler enum in declaration order.
func (x DeviceInfoIndex) Enum(handler, name string) ([]mib.EnumOption, bool) {
	h, ok := x.handlers[handler]
	if !ok {
		return nil, false
	}
	options, ok := h.Enums[name]
	return options, ok
}

// Len returns the number of handlers.
func (x DeviceInfoIndex) Len() int { return len(x.handlers) }
