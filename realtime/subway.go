package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"goyo.dev/transit/subway"
)

const DefaultSubwayURL = "http://swopenapi.seoul.go.kr/api/subway"

// SubwayClient queries the realtime subway arrival feed by station
// name. The feed returns every inbound train at the station,
// regardless of line or direction; callers filter the result through
// the station graph.
type SubwayClient struct {
	URL     string
	APIKey  string
	Fetcher Fetcher
	Logger  *slog.Logger
}

func NewSubwayClient(apiKey string, fetcher Fetcher) *SubwayClient {
	return &SubwayClient{
		URL:     DefaultSubwayURL,
		APIKey:  apiKey,
		Fetcher: fetcher,
		Logger:  slog.Default(),
	}
}

type subwayResponse struct {
	ErrorMessage struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errorMessage"`
	RealtimeArrivalList []subwayArrival `json:"realtimeArrivalList"`
}

// Line display names by the feed's subwayId code. Codes missing here
// pass through raw.
var subwayLineNames = map[string]string{
	"1001": "1호선",
	"1002": "2호선",
	"1003": "3호선",
	"1004": "4호선",
	"1005": "5호선",
	"1006": "6호선",
	"1007": "7호선",
	"1008": "8호선",
	"1009": "9호선",
	"1063": "경의중앙선",
	"1065": "공항철도",
	"1067": "경춘선",
	"1075": "수인분당선",
	"1077": "신분당선",
	"1081": "경강선",
	"1092": "우이신설선",
	"1093": "서해선",
}

func subwayLineName(id string) string {
	if name, ok := subwayLineNames[id]; ok {
		return name
	}
	return id
}

type subwayArrival struct {
	SubwayID    string `json:"subwayId"`
	UpdnLine    string `json:"updnLine"`
	TrainLineNm string `json:"trainLineNm"`
	StatnNm     string `json:"statnNm"`
	BstatnNm    string `json:"bstatnNm"`
	BarvlDt     string `json:"barvlDt"`
	ArvlMsg2    string `json:"arvlMsg2"`
	ArvlMsg3    string `json:"arvlMsg3"`
	BtrainSttus string `json:"btrainSttus"`
	LstcarAt    string `json:"lstcarAt"`
}

// StationArrivals returns all trains currently approaching the
// station, across every line serving it. The station name is
// normalized (suffix-stripped) before querying.
func (c *SubwayClient) StationArrivals(ctx context.Context, stationName string) ([]Arrival, error) {
	name := subway.Normalize(stationName)
	if name == "" {
		return nil, nil
	}

	reqURL := fmt.Sprintf(
		"%s/%s/json/realtimeStationArrival/0/30/%s",
		c.URL, c.APIKey, url.PathEscape(name),
	)
	body, err := c.Fetcher.Get(ctx, reqURL, GetOptions{
		Cache:   true,
		Timeout: DefaultTimeout,
		MaxSize: DefaultMaxSize,
	})
	if err != nil {
		c.Logger.Warn("subway feed unavailable", "station", name, "error", err)
		return nil, nil
	}

	var resp subwayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.Logger.Warn("subway feed returned junk", "station", name, "error", err)
		return nil, nil
	}
	// INFO-200 means "no data", which is a normal off-peak answer.
	if s := resp.ErrorMessage.Status; s != 0 && s != 200 {
		c.Logger.Warn("subway feed error",
			"station", name,
			"status", s,
			"code", resp.ErrorMessage.Code,
			"message", resp.ErrorMessage.Message,
		)
		return nil, nil
	}

	arrivals := []Arrival{}
	for _, item := range resp.RealtimeArrivalList {
		seconds, _ := strconv.Atoi(item.BarvlDt)
		arrivals = append(arrivals, Arrival{
			StationName: item.StatnNm,
			LineName:    subwayLineName(item.SubwayID),
			Direction:   item.UpdnLine,
			Seconds:     seconds,
			Message:     item.ArvlMsg2,
			VehicleType: item.BtrainSttus,
			IsLastTrain: item.LstcarAt == "1",
			Destination: item.BstatnNm,
		})
	}

	return arrivals, nil
}
