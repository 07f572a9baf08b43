package realtime

// One predicted vehicle arrival at a station, as reported by an
// upstream feed. Ephemeral: lives only for the request that fetched
// it.
type Arrival struct {
	StationName    string
	LineName       string
	Direction      string
	Seconds        int // 0 = at platform, or unknown
	Message        string
	RemainingStops int
	VehicleType    string
	IsLastTrain    bool
	Destination    string // subway: the train's terminal station
}
