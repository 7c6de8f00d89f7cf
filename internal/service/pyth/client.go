package pyth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
	xhttp "github.com/vijaygopalbalasa/ZKRisk/pkg/http"
)

// Client implements a PriceFeed backed by the Pyth Hermes HTTP API.
type Client struct {
	endpoint string
	feeds    map[string]string // symbol -> feed id
	client   *xhttp.Client
}

// New creates a new Hermes PriceFeed.
func New(endpoint string, feeds map[string]string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		feeds:    feeds,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type hermesPrice struct {
	Price       string `json:"price"`
	Conf        string `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

type hermesParsed struct {
	ID    string      `json:"id"`
	Price hermesPrice `json:"price"`
}

type hermesResponse struct {
	Parsed []hermesParsed `json:"parsed"`
}

// LatestPrice fetches the latest raw update for a symbol. The caller's ctx
// and the client timeout both bound the request.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (*models.PriceUpdate, error) {
	feedID, ok := c.feeds[symbol]
	if !ok {
		return nil, fmt.Errorf("pyth: %s: %w", symbol, drepo.ErrSymbolNotFound)
	}

	var hr hermesResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.endpoint + "/v2/updates/price/latest",
		QueryParams: map[string][]string{
			"ids[]":  {feedID},
			"parsed": {"true"},
		},
	}, &hr)
	if err != nil {
		return nil, fmt.Errorf("pyth latest %s: %w", symbol, err)
	}
	if len(hr.Parsed) == 0 {
		return nil, fmt.Errorf("pyth: no parsed update for %s: %w", symbol, drepo.ErrSymbolNotFound)
	}

	return decodeUpdate(symbol, hr.Parsed[0].Price)
}

func decodeUpdate(symbol string, p hermesPrice) (*models.PriceUpdate, error) {
	rawPrice, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("pyth: malformed price %q: %w", p.Price, err)
	}
	rawConf, err := strconv.ParseFloat(p.Conf, 64)
	if err != nil {
		return nil, fmt.Errorf("pyth: malformed conf %q: %w", p.Conf, err)
	}
	return &models.PriceUpdate{
		Symbol:      symbol,
		RawPrice:    rawPrice,
		RawConf:     rawConf,
		Expo:        p.Expo,
		PublishTime: time.Unix(p.PublishTime, 0),
	}, nil
}

var _ drepo.PriceFeed = (*Client)(nil)
