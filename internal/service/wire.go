package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

var (
	ErrMissingDeviceID  = errors.New("missing washroom_id")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidProfile   = errors.New("invalid profile")
)

// decodeMessage parses an MQTT payload into a loose field map.
func decodeMessage(payload []byte) (map[string]any, error) {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}
	return msg, nil
}

// deviceID reads washroom_id, falling back to device_id.
func deviceID(msg map[string]any) string {
	for _, key := range []string{"washroom_id", "device_id"} {
		switch v := msg[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func parseReading(msg map[string]any, receivedAt time.Time) (domain.SensorReading, error) {
	r := domain.SensorReading{DeviceID: deviceID(msg), ReceivedAt: receivedAt}
	if r.DeviceID == "" {
		return r, ErrMissingDeviceID
	}

	var err error
	if r.AirQuality, err = numberField(msg, "air_quality", domain.DefaultAirQuality); err != nil {
		return r, err
	}
	if r.FloorMoisture, err = numberField(msg, "floor_moisture", domain.DefaultFloorMoisture); err != nil {
		return r, err
	}
	if r.Humidity, err = numberField(msg, "humidity", domain.DefaultHumidity); err != nil {
		return r, err
	}
	if r.Temperature, err = numberField(msg, "temperature", domain.DefaultTemperature); err != nil {
		return r, err
	}
	footfall, err := numberField(msg, "footfall_count", domain.DefaultFootfallCount)
	if err != nil {
		return r, err
	}
	if r.FootfallCount, err = footfallCount(footfall); err != nil {
		return r, err
	}
	return r, nil
}

// footfallCount rejects negative and NaN counts and saturates huge ones.
func footfallCount(v float64) (int, error) {
	if math.IsNaN(v) || v < 0 {
		return 0, fmt.Errorf("%w: footfall_count %v", ErrMalformedPayload, v)
	}
	if v > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int(v), nil
}

func parseHeartbeat(msg map[string]any, seenAt time.Time) (domain.Heartbeat, error) {
	hb := domain.Heartbeat{DeviceID: deviceID(msg), Timestamp: seenAt}
	if hb.DeviceID == "" {
		return hb, ErrMissingDeviceID
	}
	uptime, err := numberField(msg, "uptime_ms", 0)
	if err != nil {
		return hb, err
	}
	heap, err := numberField(msg, "free_heap", 0)
	if err != nil {
		return hb, err
	}
	hb.UptimeMS, hb.FreeHeap = int64(uptime), int64(heap)

	switch v := msg["wifi_connected"].(type) {
	case nil:
	case bool:
		hb.WifiConnected = v
	default:
		return hb, fmt.Errorf("%w: wifi_connected is %T", ErrMalformedPayload, v)
	}
	return hb, nil
}

// numberField returns def when key is absent or null.
func numberField(msg map[string]any, key string, def float64) (float64, error) {
	switch v := msg[key].(type) {
	case nil:
		return def, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrMalformedPayload, key, v)
	}
}
