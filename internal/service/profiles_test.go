package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// racingStore reports a missing profile once, then loses the create race.
type racingStore struct {
	*fakeProfiles
	winner domain.DeviceProfile
	missed bool
}

func (s *racingStore) Get(ctx context.Context, id string) (domain.DeviceProfile, error) {
	if !s.missed {
		s.missed = true
		s.fakeProfiles.profiles[id] = s.winner
		return domain.DeviceProfile{}, domain.ErrNotFound
	}
	return s.fakeProfiles.Get(ctx, id)
}

func TestResolveRereadsAfterLosingCreateRace(t *testing.T) {
	winner := domain.DeviceProfile{DeviceID: "wr-1", Profile: domain.ProfileOffice, AlertThreshold: 60}
	store := &racingStore{fakeProfiles: newFakeProfiles(), winner: winner}
	r := NewProfileResolver(store, time.Second)

	p, err := r.Resolve(context.Background(), "wr-1")
	require.NoError(t, err)
	assert.Equal(t, winner, p)
	assert.Zero(t, store.creates)
}

func TestResolveServesFromCache(t *testing.T) {
	store := newFakeProfiles()
	r := NewProfileResolver(store, time.Second)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "wr-2")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), store.gets)
	assert.Equal(t, int32(1), store.creates)
}

func TestOverrideUpdatesStoreAndCache(t *testing.T) {
	store := newFakeProfiles()
	r := NewProfileResolver(store, time.Second)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "wr-3")
	require.NoError(t, err)

	next := domain.DeviceProfile{DeviceID: "wr-3", Profile: domain.ProfileHospital, AlertThreshold: 70, DisplayName: "Ward", Location: "L1"}
	require.NoError(t, r.Override(ctx, next))

	cached, ok := r.Cached("wr-3")
	require.True(t, ok)
	assert.Equal(t, next, cached)
	assert.Equal(t, next, store.profiles["wr-3"])
}

func TestOverrideCreatesUnknownDevice(t *testing.T) {
	store := newFakeProfiles()
	r := NewProfileResolver(store, time.Second)

	p := domain.DeviceProfile{DeviceID: "wr-4", Profile: domain.ProfileRestaurant, AlertThreshold: 40}
	require.NoError(t, r.Override(context.Background(), p))
	assert.Equal(t, p, store.profiles["wr-4"])
}

func TestOverrideValidates(t *testing.T) {
	r := NewProfileResolver(newFakeProfiles(), time.Second)
	ctx := context.Background()

	assert.ErrorIs(t, r.Override(ctx, domain.DeviceProfile{Profile: domain.ProfilePublic}), ErrMissingDeviceID)
	assert.ErrorIs(t, r.Override(ctx, domain.DeviceProfile{DeviceID: "x", Profile: "spa"}), ErrInvalidProfile)
	assert.ErrorIs(t, r.Override(ctx, domain.DeviceProfile{DeviceID: "x", Profile: domain.ProfilePublic, AlertThreshold: 120}), ErrInvalidProfile)
}

func TestInvalidateForcesReload(t *testing.T) {
	store := newFakeProfiles()
	r := NewProfileResolver(store, time.Second)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "wr-5")
	require.NoError(t, err)
	r.Invalidate("wr-5")
	_, err = r.Resolve(ctx, "wr-5")
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.gets)
}

func TestScoreCacheSnapshotIsACopy(t *testing.T) {
	c := NewScoreCache()
	c.Set("a", 10)
	snap := c.Snapshot()
	snap["a"] = 99
	c.Set("b", 20)

	got, _ := c.Get("a")
	assert.Equal(t, 10.0, got)
	assert.Len(t, snap, 1)
}

func TestLookupDoesNotCreate(t *testing.T) {
	store := newFakeProfiles()
	r := NewProfileResolver(store, time.Second)

	_, err := r.Lookup(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.creates)
}
