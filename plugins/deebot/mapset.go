package deebot

import (
	"strconv"
	"strings"
)

// The device keeps detail-fetch replies inside its numeric request-id
// space by offsetting the requested sequence number with this constant.
const detailIDOffset = 999999900

// Local identifiers are partitioned by catalog: low ids are named areas,
// the next block is barriers, anything above is unassigned. This
// numbering scheme is a fixed protocol convention; introducing a third
// catalog type would need an explicit extension of these ranges.
const (
	maxSpotAreaLocalID = 39
	maxBarrierLocalID  = 79
)

// UnknownArea is the containment sentinel used while the area catalog is
// empty, partially populated, or simply does not contain the position.
const UnknownArea = "unknown"

// MapInfo describes one base map known to the device.
type MapInfo struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Active bool   `json:"active"`
}

// SpotAreaInfo is the full geometry of one named area. Boundaries is an
// opaque coordinate-list descriptor ("x1,y1;x2,y2;..."); Connections is
// always empty on detail replies, which do not carry connector metadata.
type SpotAreaInfo struct {
	MapID       string `json:"map_id"`
	LocalID     string `json:"local_id"`
	Boundaries  string `json:"boundaries"`
	Connections string `json:"connections,omitempty"`
	SubType     string `json:"sub_type,omitempty"`
}

// BarrierInfo is the full geometry of one barrier (virtual wall).
type BarrierInfo struct {
	MapID       string `json:"map_id"`
	LocalID     string `json:"local_id"`
	Coordinates string `json:"coordinates"`
}

// Mapset event tags. "error" marks an unrecognized sub-type or an
// unclassifiable detail id; the caller decides whether to surface it.
const (
	MapsetSpotAreas      = "MapSpotAreas"
	MapsetVirtualWalls   = "MapVirtualWalls"
	MapsubsetSpotArea    = "MapSpotAreaInfo"
	MapsubsetVirtualWall = "MapVirtualWallInfo"
	MapsetError          = "error"
)

// MapSetResult reports one decoded catalog event.
type MapSetResult struct {
	Event    string
	MapID    string
	SetID    string
	EntryIDs []string
}

// MapSubsetResult reports one decoded detail-fetch reply.
type MapSubsetResult struct {
	Event   string
	Area    *SpotAreaInfo
	Barrier *BarrierInfo
}

// classifyDetailID recovers the local identifier from an offset detail
// reply id and names the catalog it belongs to.
func classifyDetailID(offsetID int) (localID int, event string) {
	localID = offsetID - detailIDOffset
	switch {
	case localID <= maxSpotAreaLocalID:
		return localID, MapsubsetSpotArea
	case localID <= maxBarrierLocalID:
		return localID, MapsubsetVirtualWall
	default:
		return localID, MapsetError
	}
}

// parseBoundaries turns a coordinate-list descriptor into polygon
// vertices, skipping malformed points.
func parseBoundaries(descriptor string) [][2]float64 {
	if descriptor == "" {
		return nil
	}
	var points [][2]float64
	for _, pair := range strings.Split(descriptor, ";") {
		fields := strings.Split(pair, ",")
		if len(fields) != 2 {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if errX != nil || errY != nil {
			continue
		}
		points = append(points, [2]float64{x, y})
	}
	return points
}

// pointInPolygon is a standard even-odd ray cast. Points on an edge may
// resolve either way; the protocol does not care.
func pointInPolygon(x, y float64, polygon [][2]float64) bool {
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := polygon[i][0], polygon[i][1]
		xj, yj := polygon[j][0], polygon[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// areaForPosition resolves a containment query: the first area in
// catalog order whose polygon contains the point wins. It tolerates a
// partially populated catalog and returns UnknownArea until a match
// exists.
func areaForPosition(x, y float64, areas []SpotAreaInfo) string {
	for _, area := range areas {
		polygon := parseBoundaries(area.Boundaries)
		if len(polygon) < 3 {
			continue
		}
		if pointInPolygon(x, y, polygon) {
			return area.LocalID
		}
	}
	return UnknownArea
}
