package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/types"
)

func testProbe(transport *httpmock.MockTransport) *Probe {
	p := NewProbe(config.DefaultConfig(), testLogger)
	p.client.Transport = transport
	return p
}

func TestProbeGetJSON(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/api/listing",
		httpmock.NewStringResponder(200, `{"totalProductHits": 3}`))

	payload, err := testProbe(transport).Get(context.Background(), "https://example.com/api/listing")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if string(payload) != `{"totalProductHits": 3}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestProbeBlocked(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/api/listing",
		httpmock.NewStringResponder(403, "Access Denied"))

	_, err := testProbe(transport).Get(context.Background(), "https://example.com/api/listing")
	if !errors.Is(err, types.ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 403 {
		t.Errorf("expected FetchError with status 403, got %v", err)
	}
}

func TestProbeMalformed(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/api/listing",
		httpmock.NewStringResponder(200, "<html>surprise</html>"))

	_, err := testProbe(transport).Get(context.Background(), "https://example.com/api/listing")
	if !errors.Is(err, types.ErrMalformedBody) {
		t.Fatalf("err = %v, want ErrMalformedBody", err)
	}
}

func TestProbeBrotliBody(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(`{"compressed": true}`)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/api/listing",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(200, buf.Bytes())
			resp.Header.Set("Content-Encoding", "br")
			return resp, nil
		})

	payload, err := testProbe(transport).Get(context.Background(), "https://example.com/api/listing")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if string(payload) != `{"compressed": true}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestProbeServerError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/api/listing",
		httpmock.NewStringResponder(502, "bad gateway"))

	_, err := testProbe(transport).Get(context.Background(), "https://example.com/api/listing")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !types.IsRetryable(err) {
		t.Error("5xx should classify as retryable")
	}
}
