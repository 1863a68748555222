package migrate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// KeyResolver maps a source TSIG key name to a destination key id,
// creating the key at the destination when it does not exist yet.
//
// Resolution is find-before-create and the result is memoized for the life
// of the resolver, so within one batch each distinct key name is resolved
// at most once and zones sharing a key name reuse the same id.
type KeyResolver struct {
	Source      Source
	Dest        Destination
	Poller      *Poller
	Compartment string // compartment holding TSIG keys
	Log         logrus.FieldLogger

	ids map[string]string
}

// Resolve returns the destination id of the named TSIG key.
//
// A key already present and ACTIVE is used as-is. A key present in any
// other state fails with InvalidStateError. A missing key is created from
// the source's key material and polled to ACTIVE before its id is returned.
func (r *KeyResolver) Resolve(ctx context.Context, name string) (string, error) {
	if id, ok := r.ids[name]; ok {
		return id, nil
	}

	found, err := r.Dest.FindTSIGKeyByName(ctx, r.Compartment, name)
	if err != nil {
		return "", fmt.Errorf("look up tsig key %q in OCI: %w", name, err)
	}
	if found != nil {
		if found.State != StateActive {
			return "", &InvalidStateError{Name: name, State: found.State}
		}
		r.remember(name, found.ID)
		return found.ID, nil
	}

	key, err := r.Source.TSIGKey(ctx, name)
	if err != nil {
		return "", fmt.Errorf("look up details for tsig key %q at the source: %w", name, err)
	}

	created, err := r.Dest.CreateTSIGKey(ctx, r.Compartment, key)
	if err != nil {
		return "", fmt.Errorf("create tsig key %q: %w", name, err)
	}

	r.Log.WithFields(logrus.Fields{"key": name, "ocid": created.ID}).
		Info("creating tsig key in OCI DNS, waiting for creation to complete")

	if err := r.Poller.AwaitActive(ctx, KindTSIGKey, created.ID); err != nil {
		return "", fmt.Errorf("waiting for creation of tsig key %q to complete: %w", name, err)
	}

	r.Log.WithField("key", name).Info("creation of tsig key in OCI DNS complete")
	r.remember(name, created.ID)
	return created.ID, nil
}

func (r *KeyResolver) remember(name, id string) {
	if r.ids == nil {
		r.ids = make(map[string]string)
	}
	r.ids[name] = id
}
