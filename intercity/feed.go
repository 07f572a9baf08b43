// Package intercity resolves terminal names and serves scheduled
// intercity/express bus departures. Unlike the city feeds there is no
// realtime position data; everything is driven off static timetables.
package intercity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"goyo.dev/transit/realtime"
)

const (
	DefaultIntercityURL = "https://apis.data.go.kr/1613000/SuburbsBusInfoService"
	DefaultExpressURL   = "https://apis.data.go.kr/1613000/ExpBusInfoService"
)

// City codes the terminal directory is synchronized from.
var DefaultCityCodes = []string{"11", "23", "31", "32", "33", "34", "35", "36", "37", "38", "39"}

type Terminal struct {
	ID   string
	Name string
	City string
}

// A single scheduled run between two terminals.
type ScheduledRun struct {
	Departure time.Time
	Arrival   time.Time
	Grade     string
	Charge    int
}

// DirectoryFeed lists terminals for a city code.
type DirectoryFeed interface {
	Terminals(ctx context.Context, cityCode string) ([]Terminal, error)
}

// TimetableFeed lists the day's scheduled runs between two terminals.
type TimetableFeed interface {
	Runs(ctx context.Context, depTerminalID, arrTerminalID, date string, express bool) ([]ScheduledRun, error)
}

// Client implements both feeds against the public timetable APIs.
type Client struct {
	IntercityURL string
	ExpressURL   string
	APIKey       string
	Fetcher      realtime.Fetcher
	Location     *time.Location
	Logger       *slog.Logger
}

func NewClient(apiKey string, fetcher realtime.Fetcher, location *time.Location) *Client {
	return &Client{
		IntercityURL: DefaultIntercityURL,
		ExpressURL:   DefaultExpressURL,
		APIKey:       apiKey,
		Fetcher:      fetcher,
		Location:     location,
		Logger:       slog.Default(),
	}
}

type feedResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      itemList `json:"items"`
			TotalCount int      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// The feed collapses a single-element item array into a bare object.
type itemList struct {
	Item []feedItem
}

func (l *itemList) UnmarshalJSON(data []byte) error {
	var multi struct {
		Item []feedItem `json:"item"`
	}
	if err := json.Unmarshal(data, &multi); err == nil {
		l.Item = multi.Item
		return nil
	}

	var single struct {
		Item feedItem `json:"item"`
	}
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	l.Item = []feedItem{single.Item}
	return nil
}

type feedItem struct {
	TerminalID   string      `json:"terminalId"`
	TerminalNm   string      `json:"terminalNm"`
	CityName     string      `json:"cityName"`
	DepPlandTime json.Number `json:"depPlandTime"`
	ArrPlandTime json.Number `json:"arrPlandTime"`
	Charge       json.Number `json:"charge"`
	GradeNm      string      `json:"gradeNm"`
}

func (c *Client) get(ctx context.Context, url string) (*feedResponse, error) {
	body, err := c.Fetcher.Get(ctx, url, realtime.GetOptions{
		Timeout: realtime.DefaultTimeout,
		MaxSize: realtime.DefaultMaxSize,
	})
	if err != nil {
		return nil, err
	}

	resp := &feedResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if code := resp.Response.Header.ResultCode; code != "00" {
		return nil, fmt.Errorf("feed error %s: %s", code, resp.Response.Header.ResultMsg)
	}
	return resp, nil
}

func (c *Client) Terminals(ctx context.Context, cityCode string) ([]Terminal, error) {
	url := fmt.Sprintf(
		"%s/getSuberbsBusTrminlList?serviceKey=%s&cityCode=%s&numOfRows=500&_type=json",
		c.IntercityURL, c.APIKey, cityCode,
	)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("listing terminals for city %s: %w", cityCode, err)
	}

	terminals := []Terminal{}
	for _, item := range resp.Response.Body.Items.Item {
		if item.TerminalID == "" {
			continue
		}
		terminals = append(terminals, Terminal{
			ID:   item.TerminalID,
			Name: item.TerminalNm,
			City: item.CityName,
		})
	}
	return terminals, nil
}

func (c *Client) Runs(ctx context.Context, depTerminalID, arrTerminalID, date string, express bool) ([]ScheduledRun, error) {
	base := c.IntercityURL
	path := "getStrtpntAlocFndSuberbsBusInfo"
	if express {
		base = c.ExpressURL
		path = "getStrtpntAlocFndExpbusInfo"
	}
	url := fmt.Sprintf(
		"%s/%s?serviceKey=%s&depTerminalId=%s&arrTerminalId=%s&depPlandTime=%s&numOfRows=200&_type=json",
		base, path, c.APIKey, depTerminalID, arrTerminalID, date,
	)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching timetable %s-%s: %w", depTerminalID, arrTerminalID, err)
	}

	runs := []ScheduledRun{}
	for _, item := range resp.Response.Body.Items.Item {
		dep, err := parsePlandTime(item.DepPlandTime.String(), c.Location)
		if err != nil {
			c.Logger.Warn("skipping run with bad departure time",
				"depPlandTime", item.DepPlandTime.String(), "error", err)
			continue
		}
		arr, err := parsePlandTime(item.ArrPlandTime.String(), c.Location)
		if err != nil {
			arr = time.Time{}
		}
		charge, _ := item.Charge.Int64()
		runs = append(runs, ScheduledRun{
			Departure: dep,
			Arrival:   arr,
			Grade:     item.GradeNm,
			Charge:    int(charge),
		})
	}
	return runs, nil
}

// Planned times come as YYYYMMDDHHmm in local time.
func parsePlandTime(s string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation("200601021504", s, location)
}
