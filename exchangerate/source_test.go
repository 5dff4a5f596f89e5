package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(status)
			_, _ = writer.Write([]byte(body))
		},
	))
	t.Cleanup(server.Close)

	return server
}

func TestRateSource_FetchRates(t *testing.T) {
	server := newTestServer(
		t,
		http.StatusOK,
		`{"base":"USD","rates":{"USD":1,"EUR":0.90,"GBP":"0.79","BAD":"n/a","NUL":null}}`,
	)

	snapshot, err := NewRateSource(server.URL, server.Client()).FetchRates(
		context.Background(),
	)
	if err != nil {
		t.Fatal(err)
	}

	expected := map[string]string{
		"USD": "1",
		"EUR": "0.90",
		"GBP": "0.79",
		"BAD": "n/a",
		"NUL": "null",
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
		if snapshot[code] != value {
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

func TestRateSource_FetchRates_Failures(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"server error":   {http.StatusInternalServerError, `{}`},
		"malformed json": {http.StatusOK, `{"rates":`},
		"wrong base":     {http.StatusOK, `{"base":"EUR","rates":{"USD":1.1}}`},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			server := newTestServer(t, test.status, test.body)

			_, err := NewRateSource(server.URL, server.Client()).FetchRates(
				context.Background(),
			)
			if err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestRateSource_FetchRates_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			<-request.Context().Done()
		},
	))
	t.Cleanup(server.Close)

	ctx, cancelCtx := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelCtx()

	_, err := NewRateSource(server.URL, server.Client()).FetchRates(ctx)
	if err == nil {
		t.Errorf("expected timeout error")
	}
}

func TestRawRate(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected string
	}{
		"number":        {`0.90`, "0.90"},
		"quoted number": {`"0.79"`, "0.79"},
		"quoted text":   {`"n/a"`, "n/a"},
		"null":          {`null`, "null"},
		"object":        {`{"value":1}`, `{"value":1}`},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if actual := rawRate([]byte(test.raw)); actual != test.expected {
				t.Errorf(
					"unexpected rate\n"+
						"expected: [%v]\n"+
						"actual:   [%v]",
					test.expected,
					actual,
				)
			}
		})
	}
}
