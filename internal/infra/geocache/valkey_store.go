package geocache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/weatherwear/internal/domain/weather"
)

// ValkeyStore persists geocode results using a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "geocode"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements weather.GeoCache.
func (s *ValkeyStore) Get(ctx context.Context, key string) (weather.Place, bool, error) {
	cmd := s.client.B().Get().Key(s.placeKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return weather.Place{}, false, nil
		}
		return weather.Place{}, false, err
	}
	place, err := decodePlace(payload)
	if err != nil {
		return weather.Place{}, false, err
	}
	return place, true, nil
}

// Put implements weather.GeoCache.
func (s *ValkeyStore) Put(ctx context.Context, key string, place weather.Place, ttl time.Duration) error {
	payload, err := json.Marshal(place)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.placeKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ex := expiry(ttl); ex > 0 {
		cmd = builder.Ex(ex).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) placeKey(key string) string {
	return fmt.Sprintf("%s:place:%s", s.prefix, key)
}

// expiry rounds sub-second TTLs up since EX has second granularity.
func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func decodePlace(payload string) (weather.Place, error) {
	var place weather.Place
	if err := json.Unmarshal([]byte(payload), &place); err != nil {
		return weather.Place{}, fmt.Errorf("decode cached place: %w", err)
	}
	return place, nil
}

var _ weather.GeoCache = (*ValkeyStore)(nil)
