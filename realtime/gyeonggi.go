package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluele/gcache"
)

const DefaultGyeonggiURL = "https://apis.data.go.kr/6410000/busstationservice/v2"

// GyeonggiBusClient queries the regional (Gyeonggi) bus feeds. The
// public "mobile stop number" printed on stop signs is not usable
// directly; it first has to be resolved to the feed's internal
// station ID via a keyword lookup. Resolutions are cached for the
// process lifetime and may additionally be persisted by the caller.
type GyeonggiBusClient struct {
	URL     string
	APIKey  string
	Fetcher Fetcher
	Logger  *slog.Logger

	resolutions gcache.Cache
}

func NewGyeonggiBusClient(apiKey string, fetcher Fetcher) *GyeonggiBusClient {
	return &GyeonggiBusClient{
		URL:         DefaultGyeonggiURL,
		APIKey:      apiKey,
		Fetcher:     fetcher,
		Logger:      slog.Default(),
		resolutions: gcache.New(cacheSize).LRU().Build(),
	}
}

type gyeonggiStationResponse struct {
	Response struct {
		MsgHeader struct {
			ResultCode    int    `json:"resultCode"`
			ResultMessage string `json:"resultMessage"`
		} `json:"msgHeader"`
		MsgBody struct {
			BusStationList []gyeonggiStation `json:"busStationList"`
		} `json:"msgBody"`
	} `json:"response"`
}

type gyeonggiStation struct {
	StationID   json.Number `json:"stationId"`
	StationName string      `json:"stationName"`
	MobileNo    string      `json:"mobileNo"`
}

type gyeonggiArrivalResponse struct {
	Response struct {
		MsgHeader struct {
			ResultCode    int    `json:"resultCode"`
			ResultMessage string `json:"resultMessage"`
		} `json:"msgHeader"`
		MsgBody struct {
			BusArrivalList []gyeonggiArrival `json:"busArrivalList"`
		} `json:"msgBody"`
	} `json:"response"`
}

type gyeonggiArrival struct {
	RouteName    string      `json:"routeName"`
	RouteTypeCd  int         `json:"routeTypeCd"`
	PredictTime1 json.Number `json:"predictTime1"`
	PredictTime2 json.Number `json:"predictTime2"`
	LocationNo1  json.Number `json:"locationNo1"`
	LocationNo2  json.Number `json:"locationNo2"`
}

// ResolveStation maps a public mobile stop number to the internal
// station ID. When several stations share the number, the expected
// station name is used to disambiguate by substring match. Returns ""
// when the stop cannot be resolved unambiguously; picking a wrong
// stop is worse than picking none.
func (c *GyeonggiBusClient) ResolveStation(ctx context.Context, mobileNo, stationName string) (string, error) {
	mobileNo = strings.TrimSpace(mobileNo)
	if mobileNo == "" {
		return "", nil
	}

	if cached, err := c.resolutions.Get(mobileNo); err == nil {
		return cached.(string), nil
	}

	url := fmt.Sprintf(
		"%s/getBusStationListv2?serviceKey=%s&keyword=%s&format=json",
		c.URL, c.APIKey, mobileNo,
	)
	body, err := c.Fetcher.Get(ctx, url, GetOptions{
		Cache:   true,
		Timeout: DefaultTimeout,
		MaxSize: DefaultMaxSize,
	})
	if err != nil {
		c.Logger.Warn("gyeonggi station lookup unavailable", "mobileNo", mobileNo, "error", err)
		return "", nil
	}

	var resp gyeonggiStationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.Logger.Warn("gyeonggi station lookup returned junk", "mobileNo", mobileNo, "error", err)
		return "", nil
	}
	if code := resp.Response.MsgHeader.ResultCode; code != 0 {
		// Code 4 is "no results", which is not worth a log line.
		if code != 4 {
			c.Logger.Warn("gyeonggi station lookup error",
				"mobileNo", mobileNo,
				"code", code,
				"message", resp.Response.MsgHeader.ResultMessage,
			)
		}
		return "", nil
	}

	// Keyword search matches loosely; require the exact mobile
	// number.
	candidates := []gyeonggiStation{}
	for _, st := range resp.Response.MsgBody.BusStationList {
		if strings.TrimLeft(st.MobileNo, "0") == strings.TrimLeft(mobileNo, "0") {
			candidates = append(candidates, st)
		}
	}

	resolved := ""
	switch {
	case len(candidates) == 1:
		resolved = candidates[0].StationID.String()
	case len(candidates) > 1 && stationName != "":
		for _, st := range candidates {
			if strings.Contains(st.StationName, stationName) ||
				strings.Contains(stationName, st.StationName) {
				resolved = st.StationID.String()
				break
			}
		}
	}

	// Negative results are cached too; the directory doesn't
	// change mid-process.
	_ = c.resolutions.Set(mobileNo, resolved)

	return resolved, nil
}

// StationArrivals returns the next-1/next-2 predictions for every
// route serving the station. The feed reports minutes; they are
// normalized to seconds here.
func (c *GyeonggiBusClient) StationArrivals(ctx context.Context, stationID string) ([]Arrival, error) {
	if stationID == "" {
		return nil, nil
	}

	url := fmt.Sprintf(
		"%s/getBusArrivalListv2?serviceKey=%s&stationId=%s&format=json",
		c.URL, c.APIKey, stationID,
	)
	body, err := c.Fetcher.Get(ctx, url, GetOptions{
		Cache:   true,
		Timeout: DefaultTimeout,
		MaxSize: DefaultMaxSize,
	})
	if err != nil {
		c.Logger.Warn("gyeonggi arrival feed unavailable", "stationId", stationID, "error", err)
		return nil, nil
	}

	var resp gyeonggiArrivalResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.Logger.Warn("gyeonggi arrival feed returned junk", "stationId", stationID, "error", err)
		return nil, nil
	}
	if code := resp.Response.MsgHeader.ResultCode; code != 0 {
		if code != 4 {
			c.Logger.Warn("gyeonggi arrival feed error",
				"stationId", stationID,
				"code", code,
				"message", resp.Response.MsgHeader.ResultMessage,
			)
		}
		return nil, nil
	}

	arrivals := []Arrival{}
	for _, item := range resp.Response.MsgBody.BusArrivalList {
		for _, next := range []struct {
			predict, location json.Number
		}{
			{item.PredictTime1, item.LocationNo1},
			{item.PredictTime2, item.LocationNo2},
		} {
			minutes, err := next.predict.Int64()
			if err != nil || minutes <= 0 {
				continue
			}
			stops, _ := next.location.Int64()
			arrivals = append(arrivals, Arrival{
				LineName:       item.RouteName,
				Seconds:        int(minutes) * 60,
				Message:        fmt.Sprintf("%d분후[%d번째 전]", minutes, stops),
				RemainingStops: int(stops),
			})
		}
	}

	return arrivals, nil
}
