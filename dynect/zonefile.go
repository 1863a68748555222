package dynect

import (
	"bytes"
	"fmt"

	"github.com/miekg/dns"
)

// zoneFile accumulates transferred records as zone-file text. The first
// line is always an $ORIGIN directive carrying the zone in absolute
// (trailing-dot) form so the destination parses relative owner names
// correctly.
type zoneFile struct {
	buf     bytes.Buffer
	records int
}

func newZoneFile(zone string) *zoneFile {
	f := new(zoneFile)
	fmt.Fprintf(&f.buf, "$ORIGIN %s\n", dns.Fqdn(zone))
	return f
}

func (f *zoneFile) addRR(rr dns.RR) {
	f.buf.WriteString(rr.String())
	f.buf.WriteByte('\n')
	f.records++
}

func (f *zoneFile) bytes() []byte {
	return f.buf.Bytes()
}
