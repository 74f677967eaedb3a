package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// WriteYAML prints the table as a YAML document keyed by the table name.
// Each record is a mapping from column header to value, in column order.
func WriteYAML[R any](w io.Writer, layout mib.Layout[R], t *mib.Table[R]) error {
	rows := &yaml.Node{Kind: yaml.SequenceNode}
	headers := layout.Headers()
	for _, r := range t.All() {
		row := &yaml.Node{Kind: yaml.MappingNode}
		for i, v := range layout.Row(r) {
			var value yaml.Node
			if err := value.Encode(v); err != nil {
				return fmt.Errorf("failed to encode %s value: %w", layout.Table, err)
			}
			row.Content = append(row.Content, scalar(headers[i]), &value)
		}
		rows.Content = append(rows.Content, row)
	}
	doc := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{scalar(layout.Table), rows},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to print %s: %w", layout.Table, err)
	}
	return enc.Close()
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
