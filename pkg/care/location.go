package care

import "time"

// LocationVerification is the result of checking one GPS/device fix
// (clock-in or clock-out) against a client's geofence.
type LocationVerification struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"` // meters

	CapturedAt      time.Time       `json:"capturedAt"`
	TimestampSource TimestampSource `json:"timestampSource"`
	Method          VerificationMethod `json:"method"`
	LocationSource  LocationSource  `json:"locationSource"`

	DistanceFromAddressMeters float64 `json:"distanceFromAddressMeters"`
	WithinGeofence            bool    `json:"withinGeofence"`
	MockLocationDetected      bool    `json:"mockLocationDetected"`

	DeviceID    string `json:"deviceId,omitempty"`
	DeviceModel string `json:"deviceModel,omitempty"`
	DeviceOS    string `json:"deviceOs,omitempty"`

	BiometricVerified *bool `json:"biometricVerified,omitempty"`

	VerificationPassed bool     `json:"verificationPassed"`
	FailureReasons     []string `json:"failureReasons,omitempty"`
}

// Geofence is the calibrated region within which a clock-in/out is accepted
// for visits at a given address.
type Geofence struct {
	Entity

	CenterLatitude  float64       `json:"centerLatitude"`
	CenterLongitude float64       `json:"centerLongitude"`
	RadiusMeters    float64       `json:"radiusMeters"` // default 100
	Shape           GeofenceShape `json:"shape"`
	PolygonVertices []LatLon      `json:"polygonVertices,omitempty"`

	// AllowedVarianceMeters is added to RadiusMeters for this geofence only,
	// on top of any state-level tolerance applied by the verification
	// engine.
	AllowedVarianceMeters float64 `json:"allowedVarianceMeters"`

	VerificationCount int     `json:"verificationCount"`
	SuccessfulCount   int     `json:"successfulCount"`
	FailedCount       int     `json:"failedCount"`
	AverageAccuracy   float64 `json:"averageAccuracy"`

	Status GeofenceStatus `json:"status"`
}

// LatLon is a single coordinate pair, used for polygon geofence vertices.
type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RecordVerification atomically folds one more verification attempt's
// outcome into the geofence's running statistics. Callers are responsible
// for serializing concurrent calls against the same geofence (e.g. via a
// single-row UPDATE in the store).
func (g *Geofence) RecordVerification(accuracy float64, success bool) {
	n := g.VerificationCount
	g.AverageAccuracy = (g.AverageAccuracy*float64(n) + accuracy) / float64(n+1)
	g.VerificationCount++
	if success {
		g.SuccessfulCount++
	} else {
		g.FailedCount++
	}
}

// EffectiveRadiusMeters returns the radius a verification check should
// compare distance against, folding in this geofence's allowed variance.
// State-level tolerance (if any) is applied on top of this by the caller.
func (g Geofence) EffectiveRadiusMeters() float64 {
	return g.RadiusMeters + g.AllowedVarianceMeters
}
