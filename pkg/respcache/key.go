package respcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
)

// Key builds the cache key for a namespace and a set of query arguments:
// namespace + "_" + JSON(query). A name given once maps to its value, a name given
// more than once maps to the list of its values in request order. encoding/json
// writes map keys sorted, so the order of names in the query string does not matter.
//
// Names and values holding invalid UTF-8 or a backslash are escaped first (see
// keyText), so distinct queries never collapse into the same key.
func Key(namespace string, args *fasthttp.Args) string {
	query := make(map[string]any)
	if args != nil {
		args.VisitAll(func(k, v []byte) {
			name, value := keyText(k), keyText(v)
			switch cur := query[name].(type) {
			case nil:
				query[name] = value
			case string:
				query[name] = []string{cur, value}
			case []string:
				query[name] = append(cur, value)
			}
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(query); err != nil {
		// a map of strings always marshals
		return namespace + "_{}"
	}
	return namespace + "_" + strings.TrimSuffix(buf.String(), "\n")
}

// keyText returns b unchanged when it is valid UTF-8 without backslashes.
// Otherwise invalid bytes become \xNN and backslashes are doubled, which keeps
// the mapping one-to-one: only escaped text contains a backslash.
func keyText(b []byte) string {
	if utf8.Valid(b) && bytes.IndexByte(b, '\\') < 0 {
		return string(b)
	}
	var sb strings.Builder
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, `\x%02x`, b[i])
		case r == '\\':
			sb.WriteString(`\\`)
		default:
			sb.Write(b[i : i+size])
		}
		i += size
	}
	return sb.String()
}
