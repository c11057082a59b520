package lookup

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Rates resolves currency exchange rates from exchangerate-api. It satisfies
// command.RateSource.
type Rates struct {
	client  *http.Client
	baseURL string
}

func NewRates(client *http.Client) *Rates {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Rates{
		client:  client,
		baseURL: "https://api.exchangerate-api.com/v4/latest",
	}
}

func (r *Rates) Rate(ctx context.Context, from, to string) (float64, error) {
	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := getJSON(ctx, r.client, fmt.Sprintf("%s/%s", r.baseURL, from), &resp); err != nil {
		return 0, err
	}
	rate, ok := resp.Rates[to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s in %s table", to, from)
	}
	return rate, nil
}
