package dynect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// transferTimeout bounds the dial and each envelope read of an AXFR so a
// wedged transfer cannot stall the whole batch.
const transferTimeout = 2 * time.Minute

// TransferError reports a refused or failed zone transfer. Transfers are
// refused when the caller's public IP has not been enabled as a transfer
// server for the zone, which is the most common operator error, so the
// message spells out the fix.
type TransferError struct {
	Zone   string
	Server string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf(`failed to fetch the zone %q from Dyn Managed DNS (%s): %v

This can happen if your public facing IP address has not been enabled as a
transfer server for the zone.

In order to migrate PRIMARY zones, you must enable zone transfers to your
current public facing IP address for any PRIMARY zones you wish to migrate.

To determine your current public facing IP address, visit:
"http://checkIP.dyn.com/".

To enable zone transfers to your IP address, follow the instructions here
using your IP address as the External Nameserver IP address:
"https://help.dyn.com/using-external-nameservers/".

Make sure that "Transfers" is selected for your IP address.`, e.Zone, e.Server, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Transfer implements migrate.Source. It AXFRs the zone from the Dyn
// transfer host and assembles the records into zone-file text prefixed
// with an $ORIGIN directive.
func (c *Client) Transfer(ctx context.Context, zone string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(zone), dns.TypeAXFR)

	t := &dns.Transfer{
		DialTimeout: transferTimeout,
		ReadTimeout: transferTimeout,
	}
	env, err := t.In(m, c.xfrServer)
	if err != nil {
		return nil, &TransferError{Zone: zone, Server: c.xfrServer, Err: err}
	}

	zf := newZoneFile(zone)
	var envelopes int
	for e := range env {
		if e.Error != nil {
			return nil, &TransferError{Zone: zone, Server: c.xfrServer, Err: e.Error}
		}
		for _, rr := range e.RR {
			zf.addRR(rr)
		}
		envelopes++
	}
	if zf.records == 0 {
		return nil, &TransferError{Zone: zone, Server: c.xfrServer, Err: errors.New("transfer returned no records")}
	}
	if c.log != nil {
		c.log.Debugf("%s xfr size: %d records (envelopes %d)", zone, zf.records, envelopes)
	}
	return zf.bytes(), nil
}
