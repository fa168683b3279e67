package domain

import (
	"encoding/json"
	"fmt"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LonLat is a position stored in [longitude, latitude] order, as records and
// GeoJSON geometries carry it.
type LonLat [2]float64

// Lon returns the longitude component.
func (p LonLat) Lon() float64 { return p[0] }

// Lat returns the latitude component.
func (p LonLat) Lat() float64 { return p[1] }

// GeoPoint swaps the axes into a latitude-first point for the map layer.
func (p LonLat) GeoPoint() GeoPoint {
	return GeoPoint{Lat: p[1], Lon: p[0]}
}

// UnmarshalJSON rejects arrays that are not exactly two numbers long.
func (p *LonLat) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("location: expected [lon, lat], got %d values", len(raw))
	}
	p[0], p[1] = raw[0], raw[1]
	return nil
}

// BoundingBox is the visible map extent. North is expected to be >= South; the
// box is axis-aligned and does not wrap the anti-meridian.
type BoundingBox struct {
	North float64 `json:"north"`
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
}

// NorthWest returns the top-left corner.
func (b BoundingBox) NorthWest() GeoPoint { return GeoPoint{Lat: b.North, Lon: b.West} }

// SouthEast returns the bottom-right corner.
func (b BoundingBox) SouthEast() GeoPoint { return GeoPoint{Lat: b.South, Lon: b.East} }

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat <= b.North && p.Lat >= b.South && p.Lon >= b.West && p.Lon <= b.East
}
