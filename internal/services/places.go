package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"roamwyth/internal/observability"
)

const (
	upstreamPlaces     = "places"
	placeDetailsFields = "id,displayName,formattedAddress,location,addressComponents"
)

var placeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,300}$`)

type PlacesClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewPlacesClient(baseURL, apiKey string) *PlacesClient {
	return &PlacesClient{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type PlacePrediction struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text"`
}

type PlaceDetails struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

type localizedText struct {
	Text string `json:"text"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID          string        `json:"placeId"`
			Text             localizedText `json:"text"`
			StructuredFormat struct {
				MainText      localizedText `json:"mainText"`
				SecondaryText localizedText `json:"secondaryText"`
			} `json:"structuredFormat"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type placeResponse struct {
	ID               string        `json:"id"`
	DisplayName      localizedText `json:"displayName"`
	FormattedAddress string        `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AddressComponents []struct {
		LongText  string   `json:"longText"`
		ShortText string   `json:"shortText"`
		Types     []string `json:"types"`
	} `json:"addressComponents"`
}

func (c *PlacesClient) Autocomplete(ctx context.Context, input, sessionToken string) ([]PlacePrediction, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, newError(ErrBadRequest, "input is required")
	}
	if c.apiKey == "" {
		return nil, newError(ErrServiceUnavailable, "places search is not configured")
	}

	body := map[string]any{"input": input}
	if sessionToken != "" {
		body["sessionToken"] = sessionToken
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var decoded autocompleteResponse
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}

	predictions := make([]PlacePrediction, 0, len(decoded.Suggestions))
	for _, s := range decoded.Suggestions {
		p := s.PlacePrediction
		if p == nil || p.PlaceID == "" {
			continue
		}
		predictions = append(predictions, PlacePrediction{
			PlaceID:       p.PlaceID,
			Description:   p.Text.Text,
			MainText:      p.StructuredFormat.MainText.Text,
			SecondaryText: p.StructuredFormat.SecondaryText.Text,
		})
	}
	return predictions, nil
}

func (c *PlacesClient) Details(ctx context.Context, placeID, sessionToken string) (*PlaceDetails, error) {
	if !placeIDPattern.MatchString(placeID) {
		return nil, newError(ErrBadRequest, "invalid place id")
	}
	if c.apiKey == "" {
		return nil, newError(ErrServiceUnavailable, "places search is not configured")
	}

	endpoint := c.baseURL + "/places/" + url.PathEscape(placeID)
	if sessionToken != "" {
		endpoint += "?sessionToken=" + url.QueryEscape(sessionToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-FieldMask", placeDetailsFields)

	var decoded placeResponse
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}

	details := &PlaceDetails{
		PlaceID: decoded.ID,
		Name:    decoded.DisplayName.Text,
		Address: decoded.FormattedAddress,
		Lat:     decoded.Location.Latitude,
		Lng:     decoded.Location.Longitude,
	}
	for _, comp := range decoded.AddressComponents {
		for _, t := range comp.Types {
			switch {
			case t == "locality" && details.City == "":
				details.City = comp.LongText
			case t == "postal_town" && details.City == "":
				details.City = comp.LongText
			case t == "country":
				details.Country = comp.LongText
			}
		}
	}
	return details, nil
}

func (c *PlacesClient) do(req *http.Request, v any) error {
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		observability.RecordUpstream(upstreamPlaces, observability.OutcomeError)
		return newError(ErrBadGateway, "places request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		observability.RecordUpstream(upstreamPlaces, observability.OutcomeError)
		return newError(ErrNotFound, "place not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		observability.RecordUpstream(upstreamPlaces, observability.OutcomeRateLimited)
		return newError(ErrRateLimited, "places rate limit reached, try again later")
	case resp.StatusCode != http.StatusOK:
		observability.RecordUpstream(upstreamPlaces, observability.OutcomeError)
		return newError(ErrBadGateway, "places returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		observability.RecordUpstream(upstreamPlaces, observability.OutcomeUnparseable)
		return newError(ErrBadGateway, "places returned an unreadable response")
	}
	observability.RecordUpstream(upstreamPlaces, observability.OutcomeSuccess)
	return nil
}
