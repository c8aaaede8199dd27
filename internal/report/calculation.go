package report

// Calculation is the single-shot report for caller-supplied satellites.
type Calculation struct {
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	Timezone         string             `json:"timezone"`
	GeneratedAt      string             `json:"generated_at"`
	CalculationInfo  CalculationInfo    `json:"calculation_info"`
	CalculationTime  CalculationTime    `json:"calculation_time"`
	OrbitInfo        []OrbitInfo        `json:"orbit_info"`
	Visibility       []ObjectVisibility `json:"visibility"`
	MinuteResults    []MinuteResult     `json:"minute_results"`
	CurrentPositions []CurrentPosition  `json:"current_positions"`
}

// CalculationInfo describes the observation span that was sampled.
type CalculationInfo struct {
	TimeMode            string  `json:"time_mode"`
	CalculationMethod   string  `json:"calculation_method"`
	TotalTimeSteps      int     `json:"total_time_steps"`
	ObservationStartUTC string  `json:"observation_start_utc"`
	ObservationEndUTC   string  `json:"observation_end_utc"`
	CustomStartTime     *string `json:"custom_start_time"`
	CustomEndTime       *string `json:"custom_end_time"`
}

// CalculationTime is the instant the report was computed.
type CalculationTime struct {
	UTC       string  `json:"utc"`
	Local     string  `json:"local"`
	Timestamp float64 `json:"timestamp"`
}

// OMM holds mean elements in CCSDS OMM field names.
type OMM struct {
	ObjectName      string  `json:"OBJECT_NAME"`
	ObjectID        int     `json:"OBJECT_ID"`
	Epoch           string  `json:"EPOCH"`
	MeanMotion      float64 `json:"MEAN_MOTION"`
	Eccentricity    float64 `json:"ECCENTRICITY"`
	Inclination     float64 `json:"INCLINATION"`
	RAOfAscNode     float64 `json:"RA_OF_ASC_NODE"`
	ArgOfPericenter float64 `json:"ARG_OF_PERICENTER"`
	MeanAnomaly     float64 `json:"MEAN_ANOMALY"`
	BStar           float64 `json:"BSTAR"`
	MeanMotionDot   float64 `json:"MEAN_MOTION_DOT"`
	MeanMotionDDot  float64 `json:"MEAN_MOTION_DDOT"`
}

// ObservationPeriod is the span an orbit track covers.
type ObservationPeriod struct {
	StartLocal        string  `json:"start_local"`
	EndLocal          string  `json:"end_local"`
	DurationMinutes   float64 `json:"duration_minutes"`
	CalculationMethod string  `json:"calculation_method"`
}

// TrackPoint is a sub-satellite point on the orbit track.
type TrackPoint struct {
	DatetimeLocal string  `json:"datetime_local"`
	DatetimeUTC   string  `json:"datetime_utc"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ElevationKm   float64 `json:"elevation_km"`
	SunAlt        float64 `json:"sun_alt"`
}

// OrbitInfo describes one satellite's orbit and its track over the span.
type OrbitInfo struct {
	Name                 string            `json:"name"`
	OrbitalPeriodMinutes float64           `json:"orbital_period_minutes"`
	OMM                  OMM               `json:"omm"`
	TimeStepMinutes      float64           `json:"time_step_minutes"`
	AverageVelocityKmS   float64           `json:"average_velocity_km_s"`
	InstantVelocityKmS   float64           `json:"instant_velocity_km_s"`
	DistancePerStepKm    float64           `json:"distance_per_step_km"`
	RadiusKm             float64           `json:"radius_km"`
	OrbitalDistanceKm    float64           `json:"orbitaldistance_km"`
	ObservationPeriod    ObservationPeriod `json:"observation_period"`
	Positions            []TrackPoint      `json:"positions"`
}

// PassSummary is one pass of an object.
type PassSummary struct {
	StartUTC       string  `json:"start_utc"`
	EndUTC         string  `json:"end_utc"`
	StartLocal     string  `json:"start_local"`
	EndLocal       string  `json:"end_local"`
	DurationPoints int     `json:"duration_points"`
	MaxElevation   float64 `json:"max_elevation"`
}

// PointSummary is the best observation instant of an object.
type PointSummary struct {
	TimeUTC      string  `json:"time_utc"`
	TimeLocal    string  `json:"time_local"`
	Elevation    float64 `json:"elevation"`
	Azimuth      float64 `json:"azimuth"`
	RangeKm      float64 `json:"range_km"`
	SunElevation float64 `json:"sun_elevation"`
}

// ObjectVisibility is the pass segmentation of one satellite.
type ObjectVisibility struct {
	Name        string        `json:"name"`
	NORADID     int           `json:"norad_id"`
	TotalPasses int           `json:"total_passes"`
	Passes      []PassSummary `json:"passes"`
	BestPass    *PassSummary  `json:"best_pass"`
	BestPoint   *PointSummary `json:"best_point"`
	Skip        string        `json:"skip_reason,omitempty"`
}

// MinuteResult is every satellite at one sampled instant.
type MinuteResult struct {
	LocalTime  string            `json:"local_time"`
	UTCTime    string            `json:"utc_time"`
	Satellites []MinuteSatellite `json:"satellites"`
}

// MinuteSatellite is one satellite at one sampled instant.
type MinuteSatellite struct {
	Name       string  `json:"name"`
	Altitude   float64 `json:"altitude"`
	Azimuth    float64 `json:"azimuth"`
	DistanceKm float64 `json:"distance_km"`
	IsSunlit   bool    `json:"is_sunlit"`
	IsVisible  bool    `json:"is_visible"`
	SunAlt     float64 `json:"sun_alt"`
}

// CurrentPosition is where a satellite is at calculation time.
type CurrentPosition struct {
	Name                   string   `json:"name"`
	CurrentTimeUTC         string   `json:"current_time_utc"`
	CurrentTimeLocal       string   `json:"current_time_local"`
	Latitude               float64  `json:"latitude"`
	Longitude              float64  `json:"longitude"`
	ElevationKm            float64  `json:"elevation_km"`
	AltitudeFromObserver   float64  `json:"altitude_from_observer"`
	AzimuthFromObserver    float64  `json:"azimuth_from_observer"`
	DistanceFromObserverKm float64  `json:"distance_from_observer_km"`
	OrbitalVelocityKmS     *float64 `json:"orbital_velocity_km_s"`
	IsSunlit               bool     `json:"is_sunlit"`
	IsVisible              bool     `json:"is_visible"`
	SunAltitude            float64  `json:"sun_altitude"`
}
