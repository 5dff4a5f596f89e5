package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance"
	"github.com/shopspring/decimal"
)

func TestRateSource_FetchRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/api/v3/ticker/price" {
				http.NotFound(writer, request)
				return
			}

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`[
				{"symbol":"EURUSDT","price":"1.25000000"},
				{"symbol":"USDTTRY","price":"32.50000000"},
				{"symbol":"BTCEUR","price":"60000.00000000"}
			]`))
		},
	))
	defer server.Close()

	client := binance.NewClient("", "")
	client.BaseURL = server.URL

	source := newRateSource(client, "", []string{"eur", "TRY", "GBP"})

	snapshot, err := source.FetchRates(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	expected := map[string]string{
		"EUR": "0.8",
		"TRY": "32.50000000",
	}

	if len(snapshot) != len(expected) {
		t.Fatalf(
			"unexpected snapshot size\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			len(expected),
			len(snapshot),
		)
	}

	for code, value := range expected {
		actual, err := decimal.NewFromString(snapshot[code])
		if err != nil {
			t.Fatalf("could not parse [%v] rate: [%v]", code, err)
		}

		if !actual.Equal(decimal.RequireFromString(value)) {
			t.Errorf(
				"unexpected [%v] rate\n"+
					"expected: [%v]\n"+
					"actual:   [%v]",
				code,
				value,
				snapshot[code],
			)
		}
	}
}

func TestRateSource_FetchRates_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusTeapot)
			_, _ = writer.Write([]byte(`{"code":-1,"msg":"nope"}`))
		},
	))
	defer server.Close()

	client := binance.NewClient("", "")
	client.BaseURL = server.URL

	_, err := newRateSource(client, "", []string{"EUR"}).FetchRates(
		context.Background(),
	)
	if err == nil {
		t.Errorf("expected error")
	}
}
