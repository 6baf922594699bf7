package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.DeviceProfile
	gets     int32
	creates  int32
	getErr   error
	delay    time.Duration
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]domain.DeviceProfile)}
}

func (f *fakeProfiles) Get(_ context.Context, id string) (domain.DeviceProfile, error) {
	atomic.AddInt32(&f.gets, 1)
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.DeviceProfile{}, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return domain.DeviceProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Create(_ context.Context, p domain.DeviceProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.DeviceID]; ok {
		return domain.ErrAlreadyExists
	}
	atomic.AddInt32(&f.creates, 1)
	f.profiles[p.DeviceID] = p
	return nil
}

func (f *fakeProfiles) Update(_ context.Context, p domain.DeviceProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.DeviceID]; !ok {
		return domain.ErrNotFound
	}
	f.profiles[p.DeviceID] = p
	return nil
}

// recorder implements every write sink and remembers what it saw.
type recorder struct {
	mu            sync.Mutex
	err           error
	results       []domain.ScoreResult
	states        map[string]domain.CurrentState
	heartbeats    map[string]domain.Heartbeat
	notifications []domain.Notification
}

func newRecorder() *recorder {
	return &recorder{
		states:     make(map[string]domain.CurrentState),
		heartbeats: make(map[string]domain.Heartbeat),
	}
}

func (r *recorder) AppendScoreResult(_ context.Context, res domain.ScoreResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, res)
	return nil
}

func (r *recorder) SetCurrentState(_ context.Context, id string, st domain.CurrentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.states[id] = st
	return nil
}

func (r *recorder) SetHeartbeat(_ context.Context, id string, hb domain.Heartbeat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.heartbeats[id] = hb
	return nil
}

func (r *recorder) PushNotification(_ context.Context, _ string, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notifications = append(r.notifications, n)
	return nil
}

// stuckLog blocks until the call's deadline.
type stuckLog struct{}

func (stuckLog) AppendScoreResult(ctx context.Context, _ domain.ScoreResult) error {
	<-ctx.Done()
	return ctx.Err()
}

var fixedNow = time.Date(2024, 4, 9, 14, 0, 0, 0, time.UTC)

func newTestServices(store *fakeProfiles, rec *recorder) *Services {
	svcs := New(Deps{Profiles: store, Log: rec, State: rec, Notifier: rec, SinkTimeout: time.Second})
	svcs.Pipeline.Now = func() time.Time { return fixedNow }
	return svcs
}

func TestProcessReadingHealthyPublicWashroom(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id":    "wr-1",
		"air_quality":    30.0,
		"floor_moisture": 20.0,
		"humidity":       50.0,
		"temperature":    23.0,
		"footfall_count": 10.0,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ComponentScores{
		domain.AirQuality:      70,
		domain.FloorMoisture:   80,
		domain.Humidity:        100,
		domain.Temperature:     100,
		domain.FootfallDensity: 90,
	}, res.ComponentScores)
	assert.Equal(t, 82.5, res.BaseScore)
	assert.Equal(t, 82.5, res.FinalScore)
	assert.Zero(t, res.DecayApplied)
	assert.Empty(t, res.Anomalies)
	assert.Equal(t, domain.ProfilePublic, res.Profile)
	assert.Equal(t, fixedNow, res.Timestamp)

	require.Len(t, rec.results, 1)
	assert.Equal(t, 82.5, rec.states["wr-1"].Score)
	assert.Empty(t, rec.notifications)

	score, ok := svcs.Scores.Get("wr-1")
	require.True(t, ok)
	assert.Equal(t, 82.5, score)
}

func TestProcessReadingAppliesDecayAndAlerts(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)
	svcs.Cleaning.RecordCleaning("wr-2", fixedNow.Add(-5*time.Hour))

	res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"device_id":      "wr-2",
		"air_quality":    90.0,
		"floor_moisture": 90.0,
		"humidity":       50.0,
		"temperature":    23.0,
		"footfall_count": 80.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 33.5, res.BaseScore)
	assert.Equal(t, 31.5, res.FinalScore)
	assert.Equal(t, 2.0, res.DecayApplied)

	kinds := make([]domain.AnomalyKind, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []domain.AnomalyKind{domain.OdorSpike, domain.MoistureAlert, domain.HighUsage}, kinds)

	require.Len(t, rec.notifications, 1)
	n := rec.notifications[0]
	assert.Equal(t, "wr-2", n.DeviceID)
	assert.Equal(t, domain.NotificationHygieneAlert, n.Kind)
	assert.Equal(t, 31.5, n.Score)
	assert.Equal(t, "Hygiene score dropped to 31.5%. Immediate cleaning required.", n.Message)
	assert.Len(t, n.Anomalies, 3)
	assert.NotEmpty(t, n.ID)
}

func TestProcessReadingAppliesDefaults(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id": "wr-3",
		"humidity":    nil,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SensorReading{
		DeviceID:      "wr-3",
		AirQuality:    50,
		FloorMoisture: 30,
		Humidity:      50,
		Temperature:   23,
		FootfallCount: 0,
		ReceivedAt:    fixedNow,
	}, res.Reading)
}

func TestProcessReadingWithoutDeviceIDTouchesNothing(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	_, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{"air_quality": 99.0})
	assert.ErrorIs(t, err, ErrMissingDeviceID)

	assert.Zero(t, atomic.LoadInt32(&store.gets))
	assert.Zero(t, atomic.LoadInt32(&store.creates))
	assert.Empty(t, rec.results)
	assert.Empty(t, rec.states)
	assert.Empty(t, rec.notifications)
	assert.Empty(t, svcs.Scores.Snapshot())
}

func TestProcessReadingRejectsNonNumericField(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	_, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id": "wr-1",
		"temperature": "hot",
	})
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, rec.results)
}

func TestConcurrentFirstSightCreatesProfileOnce(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	store.delay = 10 * time.Millisecond
	svcs := newTestServices(store, rec)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{"washroom_id": "wr-new"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&store.creates))
	p, ok := svcs.Profiles.Cached("wr-new")
	require.True(t, ok)
	assert.Equal(t, domain.NewDefaultProfile("wr-new"), p)
	assert.Len(t, rec.results, 20)
}

func TestProfileStoreFailureFallsBackWithoutCaching(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	store.profiles["wr-5"] = domain.DeviceProfile{DeviceID: "wr-5", Profile: domain.ProfileHospital, AlertThreshold: 90}
	store.getErr = errors.New("table unavailable")
	svcs := newTestServices(store, rec)

	res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{"washroom_id": "wr-5"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProfilePublic, res.Profile)
	_, cached := svcs.Profiles.Cached("wr-5")
	assert.False(t, cached)

	store.mu.Lock()
	store.getErr = nil
	store.mu.Unlock()

	res, err = svcs.Pipeline.ProcessReading(context.Background(), map[string]any{"washroom_id": "wr-5"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileHospital, res.Profile)
}

func TestSinkFailuresDoNotStopProcessing(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	rec.err = errors.New("redis down")
	svcs := newTestServices(store, rec)

	res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id": "wr-6",
		"air_quality": 100.0,
	})
	require.NoError(t, err)

	score, ok := svcs.Scores.Get("wr-6")
	require.True(t, ok)
	assert.Equal(t, res.FinalScore, score)
}

func TestSlowSinkIsBoundedByTimeout(t *testing.T) {
	store := newFakeProfiles()
	p := &Pipeline{
		Profiles:    NewProfileResolver(store, time.Second),
		Scores:      NewScoreCache(),
		Log:         stuckLog{},
		SinkTimeout: 20 * time.Millisecond,
	}

	start := time.Now()
	_, err := p.ProcessReading(context.Background(), map[string]any{"washroom_id": "wr-7"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	_, ok := p.Scores.Get("wr-7")
	assert.True(t, ok)
}

func TestHandleMessageRoutesHeartbeat(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	err := svcs.Pipeline.HandleMessage(context.Background(),
		[]byte(`{"type":"heartbeat","washroom_id":"wr-8","uptime_ms":120000,"free_heap":40960,"wifi_connected":true}`))
	require.NoError(t, err)

	assert.Equal(t, domain.Heartbeat{
		DeviceID:      "wr-8",
		Timestamp:     fixedNow,
		UptimeMS:      120000,
		FreeHeap:      40960,
		WifiConnected: true,
	}, rec.heartbeats["wr-8"])
	assert.Empty(t, rec.results)
	assert.Zero(t, atomic.LoadInt32(&store.gets))
	assert.Empty(t, svcs.Scores.Snapshot())
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	for _, payload := range []string{`{not json`, `null`, `[1,2]`} {
		err := svcs.Pipeline.HandleMessage(context.Background(), []byte(payload))
		assert.ErrorIs(t, err, ErrMalformedPayload, payload)
	}
	assert.Empty(t, rec.results)
}

func TestReadingServiceRoutesByTopic(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	require.NoError(t, svcs.Readings.FromMQTT("washroom/wr-9/heartbeat", []byte(`{"washroom_id":"wr-9","uptime_ms":5}`)))
	require.NoError(t, svcs.Readings.FromMQTT("washroom/hygiene/data", []byte(`{"washroom_id":"wr-9","air_quality":20}`)))

	assert.Equal(t, int64(5), rec.heartbeats["wr-9"].UptimeMS)
	require.Len(t, rec.results, 1)
	assert.Equal(t, 20.0, rec.results[0].Reading.AirQuality)
}

func TestCooldownSuppressesRepeatAlerts(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := New(Deps{Profiles: store, Notifier: rec, AlertCooldown: time.Hour})
	now := fixedNow
	svcs.Pipeline.Now = func() time.Time { return now }

	dirty := map[string]any{"washroom_id": "wr-10", "air_quality": 100.0, "floor_moisture": 100.0}
	for i := 0; i < 3; i++ {
		_, err := svcs.Pipeline.ProcessReading(context.Background(), dirty)
		require.NoError(t, err)
		now = now.Add(10 * time.Minute)
	}
	assert.Len(t, rec.notifications, 1)

	now = fixedNow.Add(2 * time.Hour)
	_, err := svcs.Pipeline.ProcessReading(context.Background(), dirty)
	require.NoError(t, err)
	assert.Len(t, rec.notifications, 2)
}

func TestProcessReadingSaturatesHugeFootfall(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	for _, footfall := range []float64{1e19, 1e300} {
		res, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
			"washroom_id":    "wr-11",
			"air_quality":    80.0,
			"footfall_count": footfall,
		})
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32, res.Reading.FootfallCount)
		assert.Zero(t, res.ComponentScores[domain.FootfallDensity])

		var highUsage bool
		for _, a := range res.Anomalies {
			highUsage = highUsage || a.Kind == domain.HighUsage
		}
		assert.True(t, highUsage, "footfall %g", footfall)
	}
}

func TestProcessReadingRejectsNegativeFootfall(t *testing.T) {
	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)

	_, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id":    "wr-12",
		"footfall_count": -5.0,
	})
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, rec.results)
	assert.Empty(t, svcs.Scores.Snapshot())
}

func TestProcessReadingLogsScoreBreakdown(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	store, rec := newFakeProfiles(), newRecorder()
	svcs := newTestServices(store, rec)
	_, err := svcs.Pipeline.ProcessReading(context.Background(), map[string]any{
		"washroom_id":    "wr-13",
		"air_quality":    30.0,
		"floor_moisture": 20.0,
		"humidity":       50.0,
		"temperature":    23.0,
		"footfall_count": 10.0,
	})
	require.NoError(t, err)

	var entry struct {
		Message    string             `json:"message"`
		Base       float64            `json:"base"`
		Score      float64            `json:"score"`
		Components map[string]float64 `json:"components"`
	}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry.Message == "reading processed" {
			break
		}
	}
	require.Equal(t, "reading processed", entry.Message)
	assert.Equal(t, 82.5, entry.Base)
	assert.Equal(t, 82.5, entry.Score)
	assert.Equal(t, map[string]float64{
		"air_quality":      70,
		"floor_moisture":   80,
		"humidity":         100,
		"temperature":      100,
		"footfall_density": 90,
	}, entry.Components)
}
