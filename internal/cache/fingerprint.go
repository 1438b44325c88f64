// Package cache provides request fingerprinting and a bounded TTL cache for
// memoizing ranking results per caller and input set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/onnwee/irisrank/internal/entity"
)

// fingerprintEnvelope is the canonical shape hashed into a cache key. Entity
// snapshots are included by content, so any change to an activity, connection,
// or property produces a different fingerprint.
type fingerprintEnvelope struct {
	Caller      string          `cbor:"1,keyasint"`
	Query       string          `cbor:"2,keyasint"`
	EntityTypes []string        `cbor:"3,keyasint"`
	Entities    []entity.Entity `cbor:"4,keyasint"`
	Limit       int             `cbor:"5,keyasint"`
	Weights     [4]float64      `cbor:"6,keyasint"`
}

// encMode is a deterministic CBOR encoder: map keys sorted, shortest-form
// integers. Determinism is what makes the digest usable as a cache key.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: building deterministic cbor mode: %v", err))
	}
}

// Fingerprint derives the cache key for a ranking request: a SHA-256 digest
// over the deterministic CBOR encoding of (caller, context, entity content,
// limit, weight vector). Including the weights means a weight update is never
// answered from entries computed under the previous configuration.
func Fingerprint(caller string, rctx entity.Context, entities []entity.Entity, limit int, weights [4]float64) (string, error) {
	types := append([]string(nil), rctx.EntityTypes...)
	sort.Strings(types)

	env := fingerprintEnvelope{
		Caller:      caller,
		Query:       rctx.Query,
		EntityTypes: types,
		Entities:    entities,
		Limit:       limit,
		Weights:     weights,
	}

	data, err := encMode.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
