// Package exchangerate fetches rates from an exchangerate-api compatible
// endpoint, e.g. https://api.exchangerate-api.com/v4/latest/USD.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lukasz-zimnoch/forex"
)

const (
	DefaultURL = "https://api.exchangerate-api.com/v4/latest/USD"

	maxResponseSize = 1 << 20
)

type RateSource struct {
	url    string
	client *http.Client
}

// NewRateSource uses http.DefaultClient when client is nil. Request
// deadlines come from the context passed to FetchRates.
func NewRateSource(url string, client *http.Client) *RateSource {
	if len(url) == 0 {
		url = DefaultURL
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &RateSource{url, client}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]json.RawMessage `json:"rates"`
}

func (rs *RateSource) FetchRates(ctx context.Context) (forex.RateSnapshot, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request: [%w]", err)
	}

	request.Header.Set("Accept", "application/json")

	response, err := rs.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("could not fetch rates: [%w]", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: [%v]", response.Status)
	}

	var latest latestResponse

	decoder := json.NewDecoder(io.LimitReader(response.Body, maxResponseSize))
	if err := decoder.Decode(&latest); err != nil {
		return nil, fmt.Errorf("could not decode rates: [%w]", err)
	}

	if len(latest.Base) > 0 && !strings.EqualFold(latest.Base, forex.USD.String()) {
		return nil, fmt.Errorf("unexpected base currency: [%v]", latest.Base)
	}

	snapshot := make(forex.RateSnapshot, len(latest.Rates))
	for code, raw := range latest.Rates {
		snapshot[code] = rawRate(raw)
	}

	return snapshot, nil
}

// rawRate unwraps quoted numbers. Anything else, null included, is passed
// on as is and rejected later by rate validation.
func rawRate(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var quoted string
		if err := json.Unmarshal(raw, &quoted); err == nil {
			return quoted
		}
	}

	return string(raw)
}
