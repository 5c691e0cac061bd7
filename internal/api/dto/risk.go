package dto

import (
	"github.com/paulmach/orb/geojson"

	"delivery-route-optimizer/internal/domain"
)

type RiskZoneResponse struct {
	Name      string              `json:"name"`
	Center    CoordinatesResponse `json:"center"`
	RadiusKm  float64             `json:"radius_km"`
	RiskLevel int                 `json:"risk_level"`
	ZoneType  string              `json:"zone_type"`
}

type RiskZonesResponse struct {
	Zones []RiskZoneResponse `json:"zones"`
	Count int                `json:"count"`
}

func FromZones(zones []domain.RiskZone) RiskZonesResponse {
	out := RiskZonesResponse{Zones: make([]RiskZoneResponse, 0, len(zones)), Count: len(zones)}
	for _, z := range zones {
		out.Zones = append(out.Zones, RiskZoneResponse{
			Name:      z.Name,
			Center:    Coords(z.Center),
			RadiusKm:  z.RadiusKm,
			RiskLevel: z.RiskLevel,
			ZoneType:  z.ZoneType,
		})
	}
	return out
}

// ZonesGeoJSON renders each zone as a Point feature at its center.
func ZonesGeoJSON(zones []domain.RiskZone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(z.Center.Point())
		f.Properties["name"] = z.Name
		f.Properties["radius_km"] = z.RadiusKm
		f.Properties["risk_level"] = z.RiskLevel
		f.Properties["zone_type"] = z.ZoneType
		fc.Append(f)
	}
	return fc
}
