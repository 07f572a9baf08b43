package transit

// One arrival entry as shown on the dashboard: either a live reading
// from a feed, a scheduled intercity departure, or a headway-based
// placeholder when no live signal was available.
type ArrivalInfo struct {
	StationName    string `json:"stationName"`
	LineName       string `json:"lineName"`
	Direction      string `json:"direction,omitempty"`
	ArrivalTime    int    `json:"arrivalTime"` // seconds until arrival
	ArrivalMessage string `json:"arrivalMessage"`
	RemainingStops int    `json:"remainingStops,omitempty"`
	VehicleType    string `json:"vehicleType,omitempty"`
	IsLastTrain    bool   `json:"isLastTrain,omitempty"`
	Destination    string `json:"destination,omitempty"` // subway terminal
	IsSchedule     bool   `json:"isSchedule,omitempty"`  // from an intercity timetable
	IsEstimate     bool   `json:"isEstimate,omitempty"`  // headway placeholder
}

// The computed ETA for one route. LegArrivals is ordered by the
// route's leg order, regardless of which upstream queries succeeded.
type ETAResult struct {
	RouteID          string        `json:"routeId"`
	Name             string        `json:"name"`
	RouteType        string        `json:"routeType"`
	EstimatedArrival string        `json:"estimatedArrival"` // RFC3339 local, "" during off-hours
	WaitTime         int           `json:"waitTime"`         // seconds
	TravelTime       int           `json:"travelTime"`       // minutes, carried from the saved route
	IsEstimate       bool          `json:"isEstimate"`
	LegArrivals      []ArrivalInfo `json:"legArrivals"`
}
