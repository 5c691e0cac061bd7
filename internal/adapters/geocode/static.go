package geocode

import (
	"context"
	"strings"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
)

// DefaultTable holds well-known addresses of the Hyderabad (Sindh) service
// area so demos work without a remote geocoder. Keys are lower-case.
var DefaultTable = map[string]domain.Coordinates{
	"saddar, hyderabad, sindh, pakistan":    {Lat: 25.3782, Lng: 68.3642},
	"saddar":                                {Lat: 25.3782, Lng: 68.3642},
	"saddar, hyderabad":                     {Lat: 25.3782, Lng: 68.3642},
	"latifabad, hyderabad, sindh, pakistan": {Lat: 25.3624, Lng: 68.3462},
	"latifabad":                             {Lat: 25.3624, Lng: 68.3462},
	"latifabad, hyderabad":                  {Lat: 25.3624, Lng: 68.3462},
	"qasimabad, hyderabad, sindh, pakistan": {Lat: 25.4112, Lng: 68.3889},
	"qasimabad":                             {Lat: 25.4112, Lng: 68.3889},
	"qasimabad, hyderabad":                  {Lat: 25.4112, Lng: 68.3889},
	"auto bahn road, hyderabad, pakistan":   {Lat: 25.3960, Lng: 68.3578},
	"auto bahn":                             {Lat: 25.3960, Lng: 68.3578},
	"auto bahn road":                        {Lat: 25.3960, Lng: 68.3578},
	"hyder chowk, hyderabad, pakistan":      {Lat: 25.3701, Lng: 68.3581},
	"hyder chowk":                           {Lat: 25.3701, Lng: 68.3581},
	"kotri, pakistan":                       {Lat: 25.3606, Lng: 68.3094},
	"kotri":                                 {Lat: 25.3606, Lng: 68.3094},
	"kotri, sindh":                          {Lat: 25.3606, Lng: 68.3094},
	"hyderabad, pakistan":                   {Lat: 25.3960, Lng: 68.3578},
	"hyderabad":                             {Lat: 25.3960, Lng: 68.3578},
}

// Static resolves addresses from a fixed, case-insensitive table.
type Static struct {
	table map[string]domain.Coordinates
}

// NewStatic copies table with normalized keys. A nil table means DefaultTable.
func NewStatic(table map[string]domain.Coordinates) *Static {
	if table == nil {
		table = DefaultTable
	}
	t := make(map[string]domain.Coordinates, len(table))
	for k, v := range table {
		t[tableKey(k)] = v
	}
	return &Static{table: t}
}

func (s *Static) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	if c, ok := s.table[tableKey(address)]; ok {
		return c, nil
	}
	return domain.Coordinates{}, ports.ErrAddressNotFound
}

// Normalize collapses whitespace so equivalent addresses share cache keys.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tableKey(s string) string {
	return strings.ToLower(Normalize(s))
}
