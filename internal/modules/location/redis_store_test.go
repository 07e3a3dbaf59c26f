package location

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"jeepney/internal/types"
)

func TestRedisStore_UpsertAndNearby(t *testing.T) {
	redisAddr := os.Getenv("JEEP_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("JEEP_TEST_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	ctx := context.Background()
	if err := rdb.Del(ctx, jeepGeoKey, jeepUpdatedAtKey).Err(); err != nil {
		t.Fatalf("reset keys: %v", err)
	}

	store := NewRedisStore(rdb)
	id := types.ID(fmt.Sprintf("jeep_test_%d", time.Now().UnixNano()))
	pos := types.Point{Lat: 14.6760, Lng: 121.0437}

	if _, err := store.Upsert(ctx, id, pos); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 || all[0].ID != id {
		t.Fatalf("expected only %s, got %+v", id, all)
	}
	// GEO hashes are accurate to well under a metre
	if haversineKm(pos.Lat, pos.Lng, all[0].Position.Lat, all[0].Position.Lng) > 0.001 {
		t.Errorf("stored position drifted: %+v", all[0].Position)
	}
	if all[0].UpdatedAt.IsZero() {
		t.Errorf("expected updated_at to be set")
	}

	near, err := store.Nearby(ctx, types.Point{Lat: 14.6770, Lng: 121.0437}, 1)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(near) != 1 || near[0].ID != id {
		t.Fatalf("expected %s nearby, got %+v", id, near)
	}

	far, err := store.Nearby(ctx, types.Point{Lat: 10, Lng: 120}, 1)
	if err != nil {
		t.Fatalf("nearby far: %v", err)
	}
	if len(far) != 0 {
		t.Errorf("expected no jeeps near far point, got %+v", far)
	}
}

func TestRedisStore_GetAllSortedByID(t *testing.T) {
	redisAddr := os.Getenv("JEEP_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("JEEP_TEST_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	ctx := context.Background()
	if err := rdb.Del(ctx, jeepGeoKey, jeepUpdatedAtKey).Err(); err != nil {
		t.Fatalf("reset keys: %v", err)
	}

	store := NewRedisStore(rdb)
	// jeep_b has a lower geohash score than jeep_a
	seed := []struct {
		id  types.ID
		pos types.Point
	}{
		{"jeep_a", types.Point{Lat: 14.70, Lng: 121.10}},
		{"jeep_b", types.Point{Lat: 14.60, Lng: 121.00}},
		{"jeep_c", types.Point{Lat: 10.30, Lng: 123.90}},
		{"jeep_d", types.Point{Lat: 7.07, Lng: 125.61}},
	}
	for _, s := range seed {
		if _, err := store.Upsert(ctx, s.id, s.pos); err != nil {
			t.Fatalf("upsert %s: %v", s.id, err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != len(seed) {
		t.Fatalf("expected %d jeeps, got %+v", len(seed), all)
	}
	for i, s := range seed {
		if all[i].ID != s.id {
			t.Fatalf("position %d: expected %s, got %s", i, s.id, all[i].ID)
		}
	}
}
