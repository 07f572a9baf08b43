package transit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goyo.dev/transit/storage"
)

func TestNormalizeRouteExplicitSubType(t *testing.T) {
	route := NormalizeRoute(&storage.RouteRecord{
		ID:     "r1",
		Source: "local",
		Legs: []storage.LegRecord{
			{ID: "l1", Type: "bus", SubType: "intercity_bus"},
			{ID: "l2", Type: "bus", SubType: "express_bus"},
		},
	})

	assert.Equal(t, LegIntercityBus, route.Legs[0].Kind)
	assert.Equal(t, LegExpressBus, route.Legs[1].Kind)
}

func TestNormalizeRouteLegacyHeuristic(t *testing.T) {
	// Untagged bus legs from an inter-regional trip search with no
	// city stop code predate explicit tagging; they can only be
	// intercity legs.
	route := NormalizeRoute(&storage.RouteRecord{
		ID:     "r1",
		Source: "inter_local",
		Legs: []storage.LegRecord{
			{ID: "l1", Type: "bus"},
			{ID: "l2", Type: "bus", StartStationID: "03-010"},
			{ID: "l3", Type: "subway"},
			{ID: "l4", Type: "walk"},
			{ID: "l5", Type: "train"},
		},
	})

	assert.Equal(t, LegIntercityBus, route.Legs[0].Kind)
	assert.Equal(t, LegCityBus, route.Legs[1].Kind)
	assert.Equal(t, LegCitySubway, route.Legs[2].Kind)
	assert.Equal(t, LegWalk, route.Legs[3].Kind)
	assert.Equal(t, LegTrain, route.Legs[4].Kind)
}

func TestNormalizeRouteLocalSourceBusStaysCity(t *testing.T) {
	route := NormalizeRoute(&storage.RouteRecord{
		ID:     "r1",
		Source: "local",
		Legs: []storage.LegRecord{
			{ID: "l1", Type: "bus"},
		},
	})

	assert.Equal(t, LegCityBus, route.Legs[0].Kind)
}

func TestLegKindPredicates(t *testing.T) {
	assert.True(t, LegCityBus.Transit())
	assert.True(t, LegCitySubway.Transit())
	assert.False(t, LegIntercityBus.Transit())
	assert.False(t, LegWalk.Transit())

	assert.True(t, LegIntercityBus.Intercity())
	assert.True(t, LegExpressBus.Intercity())
	assert.False(t, LegCityBus.Intercity())
}
