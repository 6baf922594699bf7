package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type ProfileName string

const (
	ProfileOffice     ProfileName = "office"
	ProfilePublic     ProfileName = "public"
	ProfileHospital   ProfileName = "hospital"
	ProfileRestaurant ProfileName = "restaurant"
)

// Valid reports whether p names one of the known facility profiles.
func (p ProfileName) Valid() bool {
	switch p {
	case ProfileOffice, ProfilePublic, ProfileHospital, ProfileRestaurant:
		return true
	}
	return false
}

type Component string

const (
	AirQuality      Component = "air_quality"
	FloorMoisture   Component = "floor_moisture"
	Humidity        Component = "humidity"
	Temperature     Component = "temperature"
	FootfallDensity Component = "footfall_density"
)

// Components lists every scored dimension in the order they are reported.
var Components = []Component{AirQuality, FloorMoisture, Humidity, Temperature, FootfallDensity}

// Defaults applied when a reading omits a field.
const (
	DefaultAirQuality    = 50.0
	DefaultFloorMoisture = 30.0
	DefaultHumidity      = 50.0
	DefaultTemperature   = 23.0
	DefaultFootfallCount = 0

	DefaultProfile   = ProfilePublic
	DefaultThreshold = 50.0
)

type SensorReading struct {
	DeviceID      string    `json:"device_id"`
	AirQuality    float64   `json:"air_quality"`
	FloorMoisture float64   `json:"floor_moisture"`
	Humidity      float64   `json:"humidity"`
	Temperature   float64   `json:"temperature"`
	FootfallCount int       `json:"footfall_count"`
	ReceivedAt    time.Time `json:"received_at"`
}

type DeviceProfile struct {
	DeviceID       string      `db:"device_id" json:"device_id" dynamodbav:"deviceId"`
	Profile        ProfileName `db:"profile" json:"profile" dynamodbav:"profile"`
	AlertThreshold float64     `db:"threshold" json:"threshold" dynamodbav:"threshold"`
	DisplayName    string      `db:"name" json:"name" dynamodbav:"name"`
	Location       string      `db:"location" json:"location" dynamodbav:"location"`
}

// NewDefaultProfile is the profile given to a device seen for the first time.
func NewDefaultProfile(deviceID string) DeviceProfile {
	return DeviceProfile{
		DeviceID:       deviceID,
		Profile:        DefaultProfile,
		AlertThreshold: DefaultThreshold,
		DisplayName:    "Washroom " + deviceID,
		Location:       "Unknown",
	}
}

type WeightProfile map[Component]float64

type ComponentScores map[Component]float64

type AnomalyKind string

const (
	OdorSpike          AnomalyKind = "ODOR_SPIKE"
	MoistureAlert      AnomalyKind = "MOISTURE_ALERT"
	TemperatureAnomaly AnomalyKind = "TEMPERATURE_ANOMALY"
	HighUsage          AnomalyKind = "HIGH_USAGE"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type Anomaly struct {
	Kind     AnomalyKind `json:"type" dynamodbav:"type"`
	Severity Severity    `json:"severity" dynamodbav:"severity"`
	Message  string      `json:"message" dynamodbav:"message"`
	Value    float64     `json:"value" dynamodbav:"value"`
}

type ScoreResult struct {
	DeviceID        string          `json:"washroom_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Reading         SensorReading   `json:"sensor_data"`
	ComponentScores ComponentScores `json:"component_scores"`
	BaseScore       float64         `json:"base_score"`
	FinalScore      float64         `json:"final_score"`
	DecayApplied    float64         `json:"decay_applied"`
	Anomalies       []Anomaly       `json:"anomalies"`
	Profile         ProfileName     `json:"profile"`
}

type CleaningState struct {
	DeviceID      string     `json:"device_id"`
	LastCleanedAt *time.Time `json:"last_cleaned_at,omitempty"`
}

const NotificationHygieneAlert = "HYGIENE_ALERT"

type Notification struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"washroom_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"type"`
	Score     float64   `json:"score"`
	Message   string    `json:"message"`
	Anomalies []Anomaly `json:"anomalies"`
}

type Heartbeat struct {
	DeviceID      string    `json:"washroom_id"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeMS      int64     `json:"uptime_ms"`
	FreeHeap      int64     `json:"free_heap"`
	WifiConnected bool      `json:"wifi_connected"`
}

type CurrentState struct {
	Score           float64         `json:"score"`
	Timestamp       time.Time       `json:"timestamp"`
	ComponentScores ComponentScores `json:"component_scores"`
	Anomalies       []Anomaly       `json:"anomalies"`
}
