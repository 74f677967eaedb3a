package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Translation file names written by WriteTranslations.
const (
	ObjectTranslationSource = "translateObjects.cpp"
	ObjectTranslationHeader = "translateObjects.h"
	EventTranslationSource  = "translateEvents.cpp"
	EventTranslationHeader  = "translateEvents.h"
)

const timestampLayout = "2006-01-02 15:04:05"

const translationSourceTmpl = `/**
 * @brief	Auto-generated {{.Kind}} translation file.
 * @details
 * Contains {{.Count}} translations.
 * Generated on: {{.Generated}}
 */
#include "{{.Header}}"

{{range .Strings -}}
const char *{{.}}_STRING = "{{.}}";
{{end}}
{{.Signature}} {
	switch( {{.Switch}} ) {
{{- range .Cases}}
	case {{.Label}}:
		return {{.Name}}_STRING;
{{- end}}
	default:
		return "{{.Default}}";
	}
	return 0;
}
`

const translationHeaderTmpl = `#ifndef {{.Guard}}
#define {{.Guard}}

{{.Include}}

{{.Signature}};

#endif /* {{.Guard}} */
`

var (
	sourceTemplate = template.Must(template.New("translation.cpp").Parse(translationSourceTmpl))
	headerTemplate = template.Must(template.New("translation.h").Parse(translationHeaderTmpl))
)

type translationCase struct {
	Label string
	Name  string
}

type translationData struct {
	Kind      string
	Count     int
	Generated string
	Header    string
	Guard     string
	Include   string
	Signature string
	Switch    string
	Default   string
	Strings   []string
	Cases     []translationCase
}

// Translator renders C++ lookup tables mapping numeric ids to names.
type Translator struct {
	// Now stamps the banner. Defaults to time.Now.
	Now func() time.Time
}

func (tr Translator) stamp() string {
	now := tr.Now
	if now == nil {
		now = time.Now
	}
	return now().Format(timestampLayout)
}

func objectTranslation(t *mib.Table[mib.Object]) translationData {
	d := translationData{
		Kind:      "object",
		Header:    ObjectTranslationHeader,
		Guard:     "FSFWCONFIG_OBJECTS_TRANSLATEOBJECTS_H_",
		Include:   "#include <fsfw/objectmanager/SystemObjectIF.h>",
		Signature: "const char* translateObject(object_id_t object)",
		Switch:    "(object & 0xFFFFFFFF)",
		Default:   "UNKNOWN_OBJECT",
	}
	for _, o := range t.All() {
		d.add(mib.FormatObjectID(o.ID), o.Name)
	}
	return d
}

func eventTranslation(t *mib.Table[mib.Event]) translationData {
	d := translationData{
		Kind:      "event",
		Header:    EventTranslationHeader,
		Guard:     "FSFWCONFIG_EVENTS_TRANSLATEEVENTS_H_",
		Include:   "#include <fsfw/events/Event.h>",
		Signature: "const char * translateEvents(Event event)",
		Switch:    "(event & 0xFFFF)",
		Default:   "UNKNOWN_EVENT",
	}
	for _, e := range t.All() {
		d.add(fmt.Sprint(e.ID), e.Name)
	}
	return d
}

// add registers a case label. Each name gets one string constant even when
// several ids map to it.
func (d *translationData) add(label, name string) {
	seen := false
	for _, s := range d.Strings {
		if s == name {
			seen = true
			break
		}
	}
	if !seen {
		d.Strings = append(d.Strings, name)
	}
	d.Cases = append(d.Cases, translationCase{Label: label, Name: name})
	d.Count++
}

// WriteObjectSource renders the object translation source.
func (tr Translator) WriteObjectSource(w io.Writer, t *mib.Table[mib.Object]) error {
	d := objectTranslation(t)
	d.Generated = tr.stamp()
	return execute(sourceTemplate, w, d)
}

// WriteObjectHeader renders the object translation declaration header.
func (tr Translator) WriteObjectHeader(w io.Writer) error {
	return execute(headerTemplate, w, objectTranslation(mib.NewTable[mib.Object]()))
}

// WriteEventSource renders the event translation source.
func (tr Translator) WriteEventSource(w io.Writer, t *mib.Table[mib.Event]) error {
	d := eventTranslation(t)
	d.Generated = tr.stamp()
	return execute(sourceTemplate, w, d)
}

// WriteEventHeader renders the event translation declaration header.
func (tr Translator) WriteEventHeader(w io.Writer) error {
	return execute(headerTemplate, w, eventTranslation(mib.NewTable[mib.Event]()))
}

// WriteObjectFiles writes translateObjects.cpp and translateObjects.h into dir.
func (tr Translator) WriteObjectFiles(dir string, t *mib.Table[mib.Object]) error {
	if err := writeFile(filepath.Join(dir, ObjectTranslationSource), func(w io.Writer) error {
		return tr.WriteObjectSource(w, t)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ObjectTranslationHeader), tr.WriteObjectHeader)
}

// WriteEventFiles writes translateEvents.cpp and translateEvents.h into dir.
func (tr Translator) WriteEventFiles(dir string, t *mib.Table[mib.Event]) error {
	if err := writeFile(filepath.Join(dir, EventTranslationSource), func(w io.Writer) error {
		return tr.WriteEventSource(w, t)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, EventTranslationHeader), tr.WriteEventHeader)
}

func execute(tmpl *template.Template, w io.Writer, d translationData) error {
	if err := tmpl.Execute(w, d); err != nil {
		return fmt.Errorf("failed to render %s %s: %w", d.Kind, tmpl.Name(), err)
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
