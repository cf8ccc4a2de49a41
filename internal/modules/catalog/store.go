// README: Car catalog store backed by the Firebase Realtime Database.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"firebase.google.com/go/v4/db"
)

const carTypesPath = "car_types"

type Source interface {
	FetchAll(ctx context.Context) ([]CarType, error)
}

type FirebaseStore struct {
	get func(ctx context.Context, v interface{}) error
}

func NewFirebaseStore(client *db.Client) *FirebaseStore {
	ref := client.NewRef(carTypesPath)
	return &FirebaseStore{get: ref.Get}
}

func (s *FirebaseStore) FetchAll(ctx context.Context) ([]CarType, error) {
	var raw json.RawMessage
	if err := s.get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading %s: %w", carTypesPath, err)
	}
	return decodeCarTypes(raw)
}

// decodeCarTypes accepts the node as either a JSON array (sequential keys,
// possibly with null holes) or an object keyed by push IDs.
func decodeCarTypes(raw []byte) ([]CarType, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var out []CarType
	switch raw[0] {
	case '[':
		var list []*CarType
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decoding %s list: %w", carTypesPath, err)
		}
		for _, c := range list {
			if c != nil {
				out = append(out, *c)
			}
		}
	case '{':
		var byKey map[string]*CarType
		if err := json.Unmarshal(raw, &byKey); err != nil {
			return nil, fmt.Errorf("decoding %s map: %w", carTypesPath, err)
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if c := byKey[k]; c != nil {
				out = append(out, *c)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected %s node: %.20s", carTypesPath, raw)
	}
	return out, nil
}
