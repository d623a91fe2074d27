package discovery

import (
	"math"
	"time"
)

const earthRadiusKm = 6371

// HaversineDistance returns the great-circle distance in kilometers
// between two coordinates given in decimal degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Location is a profile's effective discovery position. Passport is
// true when a premium location override is active, so callers can
// adjust distance labeling for far-away browsing.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Known     bool
	Passport  bool
}

// EffectiveLocation resolves a profile's discovery position: the
// passport override when present and unexpired, the primary
// coordinates otherwise.
func EffectiveLocation(p *Profile, now time.Time) Location {
	if p.PassportLatitude != nil && p.PassportLongitude != nil &&
		p.PassportExpiresAt != nil && now.Before(*p.PassportExpiresAt) {
		loc := Location{
			Latitude:  *p.PassportLatitude,
			Longitude: *p.PassportLongitude,
			Known:     true,
			Passport:  true,
		}
		if p.PassportCity != nil {
			loc.City = *p.PassportCity
		}
		return loc
	}

	if p.Latitude == nil || p.Longitude == nil {
		loc := Location{}
		if p.City != nil {
			loc.City = *p.City
		}
		return loc
	}

	loc := Location{
		Latitude:  *p.Latitude,
		Longitude: *p.Longitude,
		Known:     true,
	}
	if p.City != nil {
		loc.City = *p.City
	}
	return loc
}
