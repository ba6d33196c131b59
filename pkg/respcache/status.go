package respcache

import (
	"strconv"
	"strings"
)

// HeaderCacheStatus is the RFC 9211 response header.
const HeaderCacheStatus = "Cache-Status"

const fwdURIMiss = "uri-miss"

type cacheStatus struct {
	name   string
	hit    bool
	fwd    string
	stored bool
	ttl    int
}

func (cs cacheStatus) String() string {
	var b strings.Builder
	b.WriteString(cs.name)
	if cs.hit {
		b.WriteString("; hit")
	}
	if cs.fwd != "" {
		b.WriteString("; fwd=")
		b.WriteString(cs.fwd)
	}
	if cs.stored {
		b.WriteString("; stored")
	}
	if cs.ttl > 0 {
		b.WriteString("; ttl=")
		b.WriteString(strconv.Itoa(cs.ttl))
	}
	return b.String()
}
