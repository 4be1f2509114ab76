package extract

import "strings"

// ParseLines parses the model's free-text output, one "name: value" pair
// per line. No ordering guarantee is assumed; extra, missing, and
// malformed lines are tolerated. Duplicate names keep the last value.
func ParseLines(text string) Fields {
	var out Fields
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			out.Malformed++
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			out.Malformed++
			continue
		}
		out.setPair(name, value)
	}
	return out
}

func (f *Fields) setPair(name, value string) {
	for i, p := range f.Pairs {
		if p.Name == name {
			f.Pairs[i].Value = value
			return
		}
	}
	f.Pairs = append(f.Pairs, Pair{Name: name, Value: value})
}
