package mib

import "fmt"

// Column describes one exported column. Header is used by the tabular
// exporter, Name and SQLType by the relational exporter.
type Column struct {
	Header  string
	Name    string
	SQLType string
}

// Layout binds a record type to its exported column list.
type Layout[R any] struct {
	Table   string // relational table name
	Columns []Column
	Row     func(R) []any
}

// Headers returns the tabular header row.
func (l Layout[R]) Headers() []string {
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = c.Header
	}
	return headers
}

// ColumnNames returns the relational column names.
func (l Layout[R]) ColumnNames() []string {
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	return names
}

// ObjectLayout is the object table layout.
var ObjectLayout = Layout[Object]{
	Table: "Objects",
	Columns: []Column{
		{Header: "Object ID", Name: "objectid", SQLType: "TEXT"},
		{Header: "Name", Name: "name", SQLType: "TEXT"},
	},
	Row: func(o Object) []any {
		return []any{FormatObjectID(o.ID), o.Name}
	},
}

// EventLayout is the event table layout.
var EventLayout = Layout[Event]{
	Table: "Events",
	Columns: []Column{
		{Header: "Event ID (dec)", Name: "eventid", SQLType: "INTEGER"},
		{Header: "Event ID (hex)", Name: "eventidhex", SQLType: "TEXT"},
		{Header: "Name", Name: "name", SQLType: "TEXT"},
		{Header: "Severity", Name: "severity", SQLType: "TEXT"},
		{Header: "Description", Name: "description", SQLType: "TEXT"},
		{Header: "File Path", Name: "file", SQLType: "TEXT"},
	},
	Row: func(e Event) []any {
		return []any{e.ID, fmt.Sprintf("0x%04X", e.ID), e.Name, e.Severity, e.Description, e.File}
	},
}

// SubserviceLayout is the subservice table layout.
var SubserviceLayout = Layout[Subservice]{
	Table: "Subservice",
	Columns: []Column{
		{Header: "Service", Name: "service", SQLType: "INTEGER"},
		{Header: "Subservice Name", Name: "subsvcName", SQLType: "TEXT"},
		{Header: "Subservice Number", Name: "subsvcNumber", SQLType: "INTEGER"},
		{Header: "Type", Name: "type", SQLType: "TEXT CHECK( type IN ('TC','TM','Unspecified'))"},
		{Header: "Comment", Name: "comment", SQLType: "TEXT"},
	},
	Row: func(s Subservice) []any {
		return []any{s.Service, s.Name, s.Number, string(s.Type), s.Comment}
	},
}

// DeviceCommandLayout is the device handler command table layout.
var DeviceCommandLayout = Layout[DeviceCommand]{
	Table: "DeviceHandlerCommand",
	Columns: []Column{
		{Header: "Device Handler", Name: "deviceHandler", SQLType: "TEXT"},
		{Header: "Command Name", Name: "commandName", SQLType: "TEXT"},
		{Header: "Action ID", Name: "actionID", SQLType: "INTEGER"},
		{Header: "Command Field Name", Name: "cmdFieldName", SQLType: "TEXT"},
		{Header: "Command Field Position", Name: "cmdFieldPos", SQLType: "INTEGER"},
		{Header: "Command Field Type", Name: "cmdFieldType", SQLType: "TEXT"},
		{Header: "Command Field Option Name", Name: "cmdFieldOptName", SQLType: "TEXT"},
		{Header: "Command Field Option Value", Name: "cmdFieldOptVal", SQLType: "INTEGER"},
		{Header: "Comment", Name: "comment", SQLType: "TEXT"},
	},
	Row: func(d DeviceCommand) []any {
		return []any{
			d.Handler, d.Command, d.ActionID, d.FieldName, d.FieldPosition,
			d.FieldType, d.OptionName, d.OptionValue, d.Comment,
		}
	},
}

// ReturnValueLayout is the return value table layout.
var ReturnValueLayout = Layout[ReturnValue]{
	Table: "Returnvalues",
	Columns: []Column{
		{Header: "Full ID (hex)", Name: "code", SQLType: "TEXT"},
		{Header: "Name", Name: "name", SQLType: "TEXT"},
		{Header: "Interface", Name: "interface", SQLType: "TEXT"},
		{Header: "File", Name: "file", SQLType: "TEXT"},
		{Header: "Description", Name: "description", SQLType: "TEXT"},
	},
	Row: func(r ReturnValue) []any {
		return []any{fmt.Sprintf("0x%04X", r.Code), r.Name, r.Interface, r.File, r.Description}
	},
}

// PacketFieldLayout is the packet content table layout.
var PacketFieldLayout = Layout[PacketField]{
	Table: "PacketContent",
	Columns: []Column{
		{Header: "Service", Name: "service", SQLType: "INTEGER"},
		{Header: "Subservice", Name: "subsvc", SQLType: "TEXT"},
		{Header: "Packet Name", Name: "packetName", SQLType: "TEXT"},
		{Header: "Datatype", Name: "dataType", SQLType: "TEXT"},
		{Header: "Name", Name: "name", SQLType: "TEXT"},
		{Header: "Size [Bytes]", Name: "size", SQLType: "INTEGER"},
		{Header: "Comment", Name: "comment", SQLType: "TEXT"},
	},
	Row: func(p PacketField) []any {
		return []any{p.Service, p.Subservice, p.Packet, p.Datatype, p.Name, p.Size, p.Comment}
	},
}

// FormatObjectID renders an object id the way object lists spell them.
func FormatObjectID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}
