package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// ORS resolves addresses with OpenRouteService /geocode/search, which answers
// with a GeoJSON FeatureCollection.
type ORS struct {
	client  *httpx.Client
	baseURL string
}

func NewORS(client *httpx.Client, baseURL, apiKey string) *ORS {
	client.Header.Set("Authorization", apiKey)
	return &ORS{client: client, baseURL: baseURL}
}

func (o *ORS) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.client.Do(ctx, func() (*http.Request, error) {
		req, err := o.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors: execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors: read geocode response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors: decode geocode response: %w", err)
	}
	if len(fc.Features) == 0 {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	p, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("ors: invalid geometry %T for %q", fc.Features[0].Geometry, address)
	}

	return domain.FromPoint(p), nil
}
