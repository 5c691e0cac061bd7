package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// Nominatim queries an OpenStreetMap Nominatim server. The public instance
// allows roughly one request per second, so calls share a rate limiter.
type Nominatim struct {
	client  *httpx.Client
	baseURL string
	limiter *rate.Limiter
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewNominatim builds a client; a non-positive limit disables rate limiting.
func NewNominatim(client *httpx.Client, baseURL, userAgent string, limit rate.Limit) *Nominatim {
	client.Header.Set("User-Agent", userAgent)
	limiter := rate.NewLimiter(rate.Inf, 1)
	if limit > 0 {
		limiter = rate.NewLimiter(limit, 1)
	}
	return &Nominatim{client: client, baseURL: baseURL, limiter: limiter}
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	if err := n.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var places []nominatimPlace
	if err := n.client.GetJSON(ctx, n.baseURL+"/search?"+q.Encode(), &places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: search %q: %w", address, err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: parse lat for %q: %w", address, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: parse lon for %q: %w", address, err)
	}

	c := domain.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("nominatim: invalid coordinates for %q: %s", address, c)
	}
	return c, nil
}
