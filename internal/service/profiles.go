package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// ProfileResolver is a read-through cache in front of a ProfileStore.
// Concurrent lookups for the same unknown device share a single store
// round trip, so a default profile is created at most once per process.
type ProfileResolver struct {
	store   ProfileStore
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]domain.DeviceProfile
	group singleflight.Group
}

func NewProfileResolver(store ProfileStore, timeout time.Duration) *ProfileResolver {
	if timeout <= 0 {
		timeout = defaultSinkTimeout
	}
	return &ProfileResolver{
		store:   store,
		timeout: timeout,
		cache:   make(map[string]domain.DeviceProfile),
	}
}

// Resolve returns the profile for deviceID. When the store fails the
// default profile is returned together with the error and nothing is
// cached, so the next reading retries.
func (r *ProfileResolver) Resolve(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	if p, ok := r.Cached(deviceID); ok {
		return p, nil
	}
	v, err, _ := r.group.Do(deviceID, func() (interface{}, error) {
		if p, ok := r.Cached(deviceID); ok {
			return p, nil
		}
		return r.load(ctx, deviceID)
	})
	return v.(domain.DeviceProfile), err
}

func (r *ProfileResolver) load(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	def := domain.NewDefaultProfile(deviceID)

	p, err := r.store.Get(ctx, deviceID)
	switch {
	case err == nil:
		r.put(p)
		return p, nil
	case !errors.Is(err, domain.ErrNotFound):
		return def, fmt.Errorf("load profile: %w", err)
	}

	err = r.store.Create(ctx, def)
	switch {
	case err == nil:
		r.put(def)
		return def, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		p, err := r.store.Get(ctx, deviceID)
		if err != nil {
			return def, fmt.Errorf("reload profile: %w", err)
		}
		r.put(p)
		return p, nil
	default:
		return def, fmt.Errorf("create default profile: %w", err)
	}
}

// Lookup returns the cached or stored profile without creating one.
func (r *ProfileResolver) Lookup(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	if p, ok := r.Cached(deviceID); ok {
		return p, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p, err := r.store.Get(ctx, deviceID)
	if err != nil {
		return domain.DeviceProfile{}, err
	}
	r.put(p)
	return p, nil
}

// Override writes p to the store and replaces the cached copy.
func (r *ProfileResolver) Override(ctx context.Context, p domain.DeviceProfile) error {
	if p.DeviceID == "" {
		return ErrMissingDeviceID
	}
	if !p.Profile.Valid() {
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidProfile, p.Profile)
	}
	if p.AlertThreshold < 0 || p.AlertThreshold > 100 {
		return fmt.Errorf("%w: threshold %v outside [0,100]", ErrInvalidProfile, p.AlertThreshold)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.store.Update(ctx, p)
	if errors.Is(err, domain.ErrNotFound) {
		err = r.store.Create(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("override profile: %w", err)
	}
	r.put(p)
	return nil
}

// Invalidate drops the cached profile so the next lookup hits the store.
func (r *ProfileResolver) Invalidate(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, deviceID)
}

func (r *ProfileResolver) Cached(deviceID string) (domain.DeviceProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.cache[deviceID]
	return p, ok
}

func (r *ProfileResolver) put(p domain.DeviceProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[p.DeviceID] = p
}
