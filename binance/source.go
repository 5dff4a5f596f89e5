package binance

import (
	"context"
	"fmt"
	"strings"

	"github.com/adshao/go-binance"
	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

// DefaultQuoteAsset is the USD-pegged asset prices are read against.
const DefaultQuoteAsset = "USDT"

// RateSource derives rates per USD from Binance ticker prices. For an asset
// A and quote Q, a price p of symbol AQ yields 1/p and a price p of symbol
// QA yields p.
type RateSource struct {
	client     *binance.Client
	quoteAsset string
	assets     []string
}

func NewRateSource(
	apiKey string,
	secretKey string,
	quoteAsset string,
	assets []string,
) *RateSource {
	return newRateSource(binance.NewClient(apiKey, secretKey), quoteAsset, assets)
}

func newRateSource(
	client *binance.Client,
	quoteAsset string,
	assets []string,
) *RateSource {
	if len(quoteAsset) == 0 {
		quoteAsset = DefaultQuoteAsset
	}

	normalized := make([]string, 0, len(assets))
	for _, asset := range assets {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(asset)))
	}

	return &RateSource{
		client:     client,
		quoteAsset: strings.ToUpper(quoteAsset),
		assets:     normalized,
	}
}

func (rs *RateSource) FetchRates(ctx context.Context) (forex.RateSnapshot, error) {
	prices, err := rs.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list prices: [%w]", err)
	}

	pricesBySymbol := make(map[string]string, len(prices))
	for _, price := range prices {
		pricesBySymbol[price.Symbol] = price.Price
	}

	snapshot := make(forex.RateSnapshot, len(rs.assets))

	for _, asset := range rs.assets {
		if price, ok := pricesBySymbol[rs.quoteAsset+asset]; ok {
			snapshot[asset] = price
			continue
		}

		price, ok := pricesBySymbol[asset+rs.quoteAsset]
		if !ok {
			continue
		}

		value, err := decimal.NewFromString(price)
		if err != nil || !value.IsPositive() {
			// Left for rate validation to reject.
			snapshot[asset] = price
			continue
		}

		snapshot[asset] = decimal.NewFromInt(1).Div(value).String()
	}

	return snapshot, nil
}
