// Package migrate implements the per-zone migration orchestration: deciding
// between the primary and secondary paths, reconciling TSIG keys at the
// destination, submitting zone creation and polling it to a terminal
// lifecycle state, and applying the batch failure policy.
//
// The package is provider-agnostic. The source and destination control
// planes are supplied through the Source and Destination interfaces; the
// concrete Dyn and OCI clients live in the dynect and ocidns packages.
package migrate

import "context"

// Lifecycle states shared by zones and TSIG keys at the destination.
const (
	StateCreating = "CREATING"
	StateActive   = "ACTIVE"
)

// ResourceKind names a destination resource collection that exposes a
// lifecycle state. Zones and TSIG keys use identical state semantics.
type ResourceKind string

const (
	KindZone    ResourceKind = "zones"
	KindTSIGKey ResourceKind = "tsigKeys"
)

// ZoneKind distinguishes authoritatively hosted zones from zones mirrored
// off external masters.
type ZoneKind int

const (
	Primary ZoneKind = iota
	Secondary
)

func (k ZoneKind) String() string {
	if k == Secondary {
		return "SECONDARY"
	}
	return "PRIMARY"
}

// Master is one external master of a secondary zone as reported by the
// source provider. TSIGKeyName is empty when the master is unauthenticated.
type Master struct {
	Address     string
	TSIGKeyName string
}

// ZoneInfo is the source provider's description of a zone, read once per
// migration attempt.
type ZoneInfo struct {
	Name    string
	Kind    ZoneKind
	Masters []Master // secondary zones only
}

// tsigKeyName returns the key name shared by the zone's masters. The source
// model associates at most one key name with a secondary zone.
func (z ZoneInfo) tsigKeyName() string {
	for _, m := range z.Masters {
		if m.TSIGKeyName != "" {
			return m.TSIGKeyName
		}
	}
	return ""
}

// KeyMaterial is the secret material of a TSIG key read from the source.
// The secret is transmitted to the destination once and never logged.
type KeyMaterial struct {
	Name      string
	Algorithm string
	Secret    string
}

// ZoneSummary is a destination-side zone as returned by a list call.
type ZoneSummary struct {
	ID    string
	Name  string
	State string
}

// KeySummary is a destination-side TSIG key as returned by a list call.
type KeySummary struct {
	ID    string
	Name  string
	State string
}

// CreateResult is the identifier and initial lifecycle state returned by a
// destination create call.
type CreateResult struct {
	ID    string
	State string
}

// ExternalMaster is one master entry of the structured secondary-zone
// creation payload. TSIGKeyID is empty when the zone uses no key.
type ExternalMaster struct {
	Address   string
	TSIGKeyID string
}

// SecondaryZone is the structured creation payload for a secondary zone.
type SecondaryZone struct {
	Name        string
	Compartment string
	Masters     []ExternalMaster
}

// Source reads zone data from the provider being migrated away from. Each
// call re-queries the provider; nothing is cached locally.
type Source interface {
	// Describe looks up the zone's type and, for secondaries, its masters
	// and TSIG key name.
	Describe(ctx context.Context, zone string) (ZoneInfo, error)
	// Transfer materializes the zone's records as zone-file text via AXFR.
	// The returned text begins with an $ORIGIN directive for the zone.
	Transfer(ctx context.Context, zone string) ([]byte, error)
	// TSIGKey reads the named key's algorithm and secret.
	TSIGKey(ctx context.Context, name string) (KeyMaterial, error)
}

// Destination is the authenticated REST surface of the provider being
// migrated to. Calls are single HTTP round trips with no transport-level
// retry; the only retry-like behavior is the bounded lifecycle poll.
type Destination interface {
	// FindZoneByName returns the first zone with the given name in the
	// compartment, or nil when there is none.
	FindZoneByName(ctx context.Context, compartment, name string) (*ZoneSummary, error)
	CreateZoneFromFile(ctx context.Context, compartment string, zonefile []byte) (CreateResult, error)
	CreateSecondaryZone(ctx context.Context, zone SecondaryZone) (CreateResult, error)
	// FindTSIGKeyByName returns the first key with the given name in the
	// compartment, or nil when there is none.
	FindTSIGKeyByName(ctx context.Context, compartment, name string) (*KeySummary, error)
	CreateTSIGKey(ctx context.Context, compartment string, key KeyMaterial) (CreateResult, error)
	LifecycleClient
}

// LifecycleClient fetches the current lifecycle state of a destination
// resource. Split out of Destination so the poller depends on nothing else.
type LifecycleClient interface {
	GetLifecycleState(ctx context.Context, kind ResourceKind, id string) (string, error)
}
