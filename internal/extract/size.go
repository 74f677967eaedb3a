package extract

import (
	"regexp"
	"strconv"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// SizeDeduced marks fields whose width is only known at runtime.
const SizeDeduced = "deduced"

type sizeRule struct {
	pattern *regexp.Regexp
	size    func(m []string) string
}

func fixedSize(n int) func([]string) string {
	s := strconv.Itoa(n)
	return func([]string) string { return s }
}

// sizeRules are tried in order, the first match wins.
var sizeRules = []sizeRule{
	{regexp.MustCompile(`\*|\[`), func([]string) string { return SizeDeduced }},
	{regexp.MustCompile(`u?int([0-9]{1,2})_t`), func(m []string) string {
		bits, _ := strconv.Atoi(m[1])
		return strconv.Itoa((bits + 7) / 8)
	}},
	{regexp.MustCompile(`double`), fixedSize(8)},
	{regexp.MustCompile(`object_id_t|ActionId_t|Mode_t|float|sid_t|ParameterId_t`), fixedSize(4)},
	{regexp.MustCompile(`ReturnValue_t|EventId_t`), fixedSize(2)},
	{regexp.MustCompile(`Submode_t|bool`), fixedSize(1)},
}

// InferSize returns the byte width of a datatype, SizeDeduced for buffers
// and "" when no rule applies.
func InferSize(datatype string) string {
	for _, rule := range sizeRules {
		if m := rule.pattern.FindStringSubmatch(datatype); m != nil {
			return rule.size(m)
		}
	}
	return ""
}

// InferSizes is the global finalisation pass of the packet content table.
func InferSizes(t *mib.Table[mib.PacketField]) {
	t.Update(func(_ int, f mib.PacketField) mib.PacketField {
		f.Size = InferSize(f.Datatype)
		return f
	})
}
