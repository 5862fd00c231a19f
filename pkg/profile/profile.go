// Package profile defines the opaque callable the extractor and the
// edge-based graph factory delegate classification, speed, and turn
// penalty decisions to. Per spec §9 design notes the profile is
// values-in/values-out — no callback from native code into native
// code — and is not assumed thread-safe: callers hold one handle per
// worker thread.
package profile

// VetoPenalty is the sentinel TurnFunction returns to veto a turn
// outright (the candidate edge-based edge is dropped).
const VetoPenalty = -1.0

// WayTags is the minimal view of a raw way's tags the profile needs.
// The extractor front-end is responsible for turning OSM tags into
// this shape.
type WayTags struct {
	Highway     string
	MaxSpeedKMH float64
	OneWay      bool
	Forward     bool // meaningful only if OneWay
	Roundabout  bool
	Lanes       int
	Name        string
}

// WayResult is what the way function decides about one way.
type WayResult struct {
	Accept     bool
	SpeedKMH   float64
	TravelMode uint8
	NameID     int
	Access     bool // false = impassable for the configured travel mode
}

// NodeTags is the minimal view of a raw node's tags the profile needs.
type NodeTags struct {
	Barrier       bool
	TrafficSignal bool
}

// NodeResult is what the node function decides about one node.
type NodeResult struct {
	Barrier                  bool
	TrafficSignal            bool
	SignalPenaltyDeciseconds int32
}

// Profile is the four-entry-point opaque callable: a script or a
// native Go implementation that classifies ways, assigns speeds, and
// prices turns. SourceFunction runs once; NodeFunction/WayFunction run
// per element; TurnFunction runs per candidate turn.
type Profile interface {
	SourceFunction() error
	NodeFunction(tags NodeTags) NodeResult
	WayFunction(tags WayTags) WayResult
	// TurnFunction returns the turn penalty, in deciseconds, for a
	// turn of the given signed angle in degrees (0 = straight ahead,
	// +-180 = U-turn). Returns VetoPenalty to forbid the turn.
	TurnFunction(angleDegrees float64) float64
}

// Default is a small built-in profile: a per-highway-class speed table
// and a conventional turn-cost curve where gentle turns are nearly
// free and sharp turns or U-turns cost seconds.
type Default struct{}

func NewDefault() *Default { return &Default{} }

func (Default) SourceFunction() error { return nil }

func (Default) NodeFunction(tags NodeTags) NodeResult {
	res := NodeResult{
		Barrier:       tags.Barrier,
		TrafficSignal: tags.TrafficSignal,
	}
	if tags.TrafficSignal {
		res.SignalPenaltyDeciseconds = 20 // 2s
	}
	return res
}

func (Default) WayFunction(tags WayTags) WayResult {
	speed := tags.MaxSpeedKMH
	if speed <= 0 {
		speed = roadTypeDefaultSpeed(tags.Highway)
	}
	return WayResult{
		Accept:     speed > 0,
		SpeedKMH:   speed,
		TravelMode: 1, // "driving"
		Access:     true,
	}
}

func (Default) TurnFunction(angleDegrees float64) float64 {
	abs := angleDegrees
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 30:
		return 0
	case abs < 90:
		return 20 // 2s, slight turn
	case abs < 150:
		return 50 // 5s, sharp turn
	default:
		return 100 // 10s, near U-turn
	}
}

func roadTypeDefaultSpeed(highway string) float64 {
	switch highway {
	case "motorway":
		return 100
	case "trunk":
		return 70
	case "primary":
		return 65
	case "secondary":
		return 60
	case "tertiary":
		return 50
	case "unclassified":
		return 30
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 70
	case "trunk_link":
		return 65
	case "primary_link":
		return 60
	case "secondary_link":
		return 50
	case "tertiary_link":
		return 40
	case "living_street":
		return 10
	case "road":
		return 20
	case "track":
		return 15
	default:
		return 40
	}
}

// SpeedToWeight converts a length in meters and a speed in km/h into a
// weight in deciseconds (seconds * 10), enforcing the floor of 1 from
// spec §3/§4.3.
func SpeedToWeight(lengthMeters, speedKMH float64) int32 {
	if speedKMH <= 0 {
		return 1
	}
	mps := speedKMH / 3.6
	weight := int32(lengthMeters*10/mps + 0.5)
	if weight < 1 {
		weight = 1
	}
	return weight
}
