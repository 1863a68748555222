package migrate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSource serves canned zone data and records how often it is hit.
type fakeSource struct {
	zones     map[string]ZoneInfo
	zonefiles map[string][]byte
	keys      map[string]KeyMaterial

	describeCalls int
	transferCalls int
	keyCalls      int
	transferErr   error
}

func (s *fakeSource) Describe(_ context.Context, zone string) (ZoneInfo, error) {
	s.describeCalls++
	info, ok := s.zones[zone]
	if !ok {
		return ZoneInfo{}, fmt.Errorf("zone %q not found at source", zone)
	}
	return info, nil
}

func (s *fakeSource) Transfer(_ context.Context, zone string) ([]byte, error) {
	s.transferCalls++
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	zonefile, ok := s.zonefiles[zone]
	if !ok {
		return nil, fmt.Errorf("no zone file for %q", zone)
	}
	return zonefile, nil
}

func (s *fakeSource) TSIGKey(_ context.Context, name string) (KeyMaterial, error) {
	s.keyCalls++
	key, ok := s.keys[name]
	if !ok {
		return KeyMaterial{}, fmt.Errorf("tsig key %q not found at source", name)
	}
	return key, nil
}

type fileCreate struct {
	compartment string
	zonefile    []byte
}

// fakeDest is an in-memory destination. Created resources come back
// CREATING and poll to ACTIVE unless a state sequence is scripted for
// their id in states.
type fakeDest struct {
	zones  map[string]string     // existing zone name -> id
	keys   map[string]KeySummary // existing key name -> summary
	states map[string][]string   // id -> lifecycle state sequence

	polls        map[string]int
	findKeyCalls int
	zoneCreates  []SecondaryZone
	fileCreates  []fileCreate
	keyCreates   []KeyMaterial
}

func (d *fakeDest) FindZoneByName(_ context.Context, _, name string) (*ZoneSummary, error) {
	if id, ok := d.zones[name]; ok {
		return &ZoneSummary{ID: id, Name: name, State: StateActive}, nil
	}
	return nil, nil
}

func (d *fakeDest) CreateZoneFromFile(_ context.Context, compartment string, zonefile []byte) (CreateResult, error) {
	d.fileCreates = append(d.fileCreates, fileCreate{compartment, zonefile})
	return CreateResult{ID: fmt.Sprintf("ocid.zone.file%d", len(d.fileCreates)), State: StateCreating}, nil
}

func (d *fakeDest) CreateSecondaryZone(_ context.Context, zone SecondaryZone) (CreateResult, error) {
	d.zoneCreates = append(d.zoneCreates, zone)
	return CreateResult{ID: "ocid.zone." + zone.Name, State: StateCreating}, nil
}

func (d *fakeDest) FindTSIGKeyByName(_ context.Context, _, name string) (*KeySummary, error) {
	d.findKeyCalls++
	if key, ok := d.keys[name]; ok {
		return &key, nil
	}
	return nil, nil
}

func (d *fakeDest) CreateTSIGKey(_ context.Context, _ string, key KeyMaterial) (CreateResult, error) {
	d.keyCreates = append(d.keyCreates, key)
	return CreateResult{ID: "ocid.tsigkey." + key.Name, State: StateCreating}, nil
}

func (d *fakeDest) GetLifecycleState(_ context.Context, _ ResourceKind, id string) (string, error) {
	seq, ok := d.states[id]
	if !ok {
		return StateActive, nil
	}
	if d.polls == nil {
		d.polls = make(map[string]int)
	}
	i := d.polls[id]
	d.polls[id]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return seq[i], nil
}

// immediatePoller polls without sleeping.
func immediatePoller(client LifecycleClient) *Poller {
	p := NewPoller(client)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}
