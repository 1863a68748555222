package migrate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Outcome is the terminal state of one zone's migration attempt.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is the per-zone migration outcome. ID is the destination zone ocid
// for created and skipped zones; Err is set only for failed ones.
type Result struct {
	Zone    string
	Outcome Outcome
	ID      string
	Err     error
}

// Migrator migrates a single zone from the source to the destination.
type Migrator struct {
	Source      Source
	Dest        Destination
	Keys        *KeyResolver
	Poller      *Poller
	Compartment string // compartment to create zones in
	Log         logrus.FieldLogger
}

// Migrate recreates the named zone at the destination and waits for it to
// become ACTIVE. A same-named zone already present in the compartment is
// skipped without touching the source. All failures are wrapped with the
// zone name and failed step and returned inside the Result; nothing
// propagates past this boundary.
func (m *Migrator) Migrate(ctx context.Context, zone string) Result {
	existing, err := m.Dest.FindZoneByName(ctx, m.Compartment, zone)
	if err != nil {
		return m.failed(zone, "look up existing zones", err)
	}
	if existing != nil {
		m.Log.WithFields(logrus.Fields{"zone": zone, "ocid": existing.ID}).
			Info("found existing OCI zone, skipping")
		return Result{Zone: zone, Outcome: OutcomeSkipped, ID: existing.ID}
	}

	info, err := m.Source.Describe(ctx, zone)
	if err != nil {
		return m.failed(zone, "look up the zone at the source", err)
	}

	var created CreateResult
	switch info.Kind {
	case Secondary:
		created, err = m.createSecondary(ctx, info)
	default:
		created, err = m.createPrimary(ctx, zone)
	}
	if err != nil {
		return m.failed(zone, "create the zone in OCI DNS", err)
	}

	m.Log.WithFields(logrus.Fields{"zone": zone, "ocid": created.ID}).
		Info("creating zone in OCI DNS, waiting for creation to complete")

	if err := m.Poller.AwaitActive(ctx, KindZone, created.ID); err != nil {
		return m.failed(zone, "wait for zone creation to complete", err)
	}

	m.Log.WithFields(logrus.Fields{"zone": zone, "ocid": created.ID}).
		Info("creation of zone in OCI DNS complete")
	return Result{Zone: zone, Outcome: OutcomeCreated, ID: created.ID}
}

// createSecondary resolves the zone's TSIG key (all masters of a secondary
// share at most one key name) and submits the structured creation payload.
func (m *Migrator) createSecondary(ctx context.Context, info ZoneInfo) (CreateResult, error) {
	var keyID string
	if name := info.tsigKeyName(); name != "" {
		id, err := m.Keys.Resolve(ctx, name)
		if err != nil {
			return CreateResult{}, fmt.Errorf("get or create tsig key for secondary zone: %w", err)
		}
		keyID = id
	}

	req := SecondaryZone{Name: info.Name, Compartment: m.Compartment}
	for _, master := range info.Masters {
		req.Masters = append(req.Masters, ExternalMaster{Address: master.Address, TSIGKeyID: keyID})
	}
	return m.Dest.CreateSecondaryZone(ctx, req)
}

// createPrimary acquires the zone's records by zone transfer and submits
// the resulting zone-file text.
func (m *Migrator) createPrimary(ctx context.Context, zone string) (CreateResult, error) {
	zonefile, err := m.Source.Transfer(ctx, zone)
	if err != nil {
		return CreateResult{}, fmt.Errorf("fetch the zone by zone transfer: %w", err)
	}
	return m.Dest.CreateZoneFromFile(ctx, m.Compartment, zonefile)
}

func (m *Migrator) failed(zone, step string, err error) Result {
	return Result{
		Zone:    zone,
		Outcome: OutcomeFailed,
		Err:     fmt.Errorf("zone %q: %s: %w", zone, step, err),
	}
}
