package export

import "strings"

// ParseAttrPlist parses a backend attribute line such as
// ":width 300 :alt A cat" into a key/value map without leading colons.
func ParseAttrPlist(s string) map[string]string {
	out := map[string]string{}
	var key string
	var val []string
	flush := func() {
		if key != "" {
			out[key] = strings.Join(val, " ")
		}
		val = nil
	}
	for _, f := range strings.Fields(s) {
		if strings.HasPrefix(f, ":") && len(f) > 1 {
			flush()
			key = strings.ToLower(f[1:])
			continue
		}
		if key != "" {
			val = append(val, f)
		}
	}
	flush()
	return out
}
