// Package facility implements the facility directory (C10): a pure,
// in-memory lookup of facilities by specialty, optionally ranked by
// haversine distance from a caller-supplied location.
package facility

import (
	"math"
	"sort"
	"strings"

	"pretriage/internal/catalog"
)

const earthRadiusKM = 6371.0

// Entry is one facility result, with distance populated only when the
// caller provided coordinates to rank against.
type Entry struct {
	Name       string
	Type       string
	Address    string
	City       string
	Lat        float64
	Lon        float64
	DistanceKM *float64
}

// Query selects and optionally ranks facilities for one specialty.
type Query struct {
	SpecialtyID string
	City        string // optional case-insensitive filter
	Lat, Lon    *float64
	Limit       int // 0 means no limit
}

// Lookup returns facilities matching q.SpecialtyID (and q.City, if set).
// With coordinates given, results are ranked by ascending distance;
// without them, insertion order from the catalog is preserved.
func Lookup(q Query, cat *catalog.Catalog) []Entry {
	var out []Entry
	for _, f := range cat.Facilities {
		if f.SpecialtyID != q.SpecialtyID {
			continue
		}
		if q.City != "" && !strings.EqualFold(f.City, q.City) {
			continue
		}
		e := Entry{Name: f.Name, Type: f.Type, Address: f.Address, City: f.City, Lat: f.Lat, Lon: f.Lon}
		if q.Lat != nil && q.Lon != nil {
			d := haversineKM(*q.Lat, *q.Lon, f.Lat, f.Lon)
			e.DistanceKM = &d
		}
		out = append(out, e)
	}

	if q.Lat != nil && q.Lon != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].DistanceKM < *out[j].DistanceKM
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const deg2rad = math.Pi / 180
	dLat := (lat2 - lat1) * deg2rad
	dLon := (lon2 - lon1) * deg2rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
