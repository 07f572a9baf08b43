package intercity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goyo.dev/transit/realtime"
	"goyo.dev/transit/testutil"
)

func feedFixtureClient(t *testing.T) (*Client, *testutil.MockFeedServer) {
	server := testutil.FeedServer()
	t.Cleanup(server.Close)

	location, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	client := NewClient("testkey", realtime.NewCachingFetcher(time.Minute), location)
	client.IntercityURL = server.Server.URL
	client.ExpressURL = server.Server.URL + "/express"
	return client, server
}

func TestClientTerminals(t *testing.T) {
	client, server := feedFixtureClient(t)
	server.Serve("/getSuberbsBusTrminlList", `{
	  "response": {
	    "header": {"resultCode": "00", "resultMsg": "NORMAL SERVICE."},
	    "body": {
	      "items": {"item": [
	        {"terminalId": "NAEK010", "terminalNm": "동서울", "cityName": "서울"},
	        {"terminalId": "NAEK700", "terminalNm": "서울고속버스터미널", "cityName": "서울"}
	      ]},
	      "totalCount": 2
	    }
	  }
	}`)

	terminals, err := client.Terminals(context.Background(), "11")
	require.NoError(t, err)
	require.Len(t, terminals, 2)
	assert.Equal(t, Terminal{ID: "NAEK010", Name: "동서울", City: "서울"}, terminals[0])
}

func TestClientRuns(t *testing.T) {
	client, server := feedFixtureClient(t)
	server.Serve("/getStrtpntAlocFndSuberbsBusInfo", `{
	  "response": {
	    "header": {"resultCode": "00", "resultMsg": "NORMAL SERVICE."},
	    "body": {
	      "items": {"item": [
	        {"depPlandTime": 202609011430, "arrPlandTime": 202609011720, "charge": 28000, "gradeNm": "우등"},
	        {"depPlandTime": 202609011510, "arrPlandTime": 202609011800, "charge": 21000, "gradeNm": "일반"}
	      ]},
	      "totalCount": 2
	    }
	  }
	}`)

	runs, err := client.Runs(context.Background(), "NAEK010", "NAEK500", "20260901", false)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "우등", runs[0].Grade)
	assert.Equal(t, 28000, runs[0].Charge)
	assert.Equal(t, "14:30", runs[0].Departure.Format("15:04"))
	assert.Equal(t, "17:20", runs[0].Arrival.Format("15:04"))
}

func TestClientRunsExpressUsesExpressBase(t *testing.T) {
	client, server := feedFixtureClient(t)
	server.Serve("/express/getStrtpntAlocFndExpbusInfo", `{
	  "response": {
	    "header": {"resultCode": "00", "resultMsg": "NORMAL SERVICE."},
	    "body": {
	      "items": {"item": [
	        {"depPlandTime": 202609011500, "arrPlandTime": 202609011900, "charge": 34000, "gradeNm": "프리미엄"}
	      ]},
	      "totalCount": 1
	    }
	  }
	}`)

	runs, err := client.Runs(context.Background(), "NAEK700", "NAEK132", "20260901", true)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "프리미엄", runs[0].Grade)
}

func TestClientFeedError(t *testing.T) {
	client, server := feedFixtureClient(t)
	server.Serve("/getSuberbsBusTrminlList", `{
	  "response": {
	    "header": {"resultCode": "30", "resultMsg": "SERVICE KEY IS NOT REGISTERED ERROR."},
	    "body": {}
	  }
	}`)

	_, err := client.Terminals(context.Background(), "11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed error 30")
}

// The feed collapses single-element item arrays into a bare object.
func TestItemListSingleObjectCollapse(t *testing.T) {
	var l itemList
	require.NoError(t, json.Unmarshal([]byte(`{"item": {"terminalId": "NAEK010", "terminalNm": "동서울"}}`), &l))
	require.Len(t, l.Item, 1)
	assert.Equal(t, "NAEK010", l.Item[0].TerminalID)

	l = itemList{}
	require.NoError(t, json.Unmarshal([]byte(`{"item": [{"terminalId": "a"}, {"terminalId": "b"}]}`), &l))
	assert.Len(t, l.Item, 2)

	l = itemList{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &l))
	assert.Empty(t, l.Item)
}

func TestParsePlandTime(t *testing.T) {
	location, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	parsed, err := parsePlandTime("202609011430", location)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 14, 30, 0, 0, location), parsed)

	_, err = parsePlandTime("notatime", location)
	require.Error(t, err)
}
