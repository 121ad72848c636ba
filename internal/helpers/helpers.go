// Package helpers holds test fixtures shared by the server, command and
// integration tests.
package helpers

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jnovack/rusqbin/pkg/bins"
)

// --- Minimal metrics stub to satisfy server.Metrics ---

type NopMetrics struct{}

func (NopMetrics) InflightAdd(_, _ string)                   {}
func (NopMetrics) InflightRemove(_ string)                   {}
func (NopMetrics) ObserveRequest(_ string, _ int, _ float64) {}
func (NopMetrics) IncBins()                                  {}
func (NopMetrics) DecBins()                                  {}
func (NopMetrics) IncCaptured()                              {}

// ReservePort returns an available local TCP port by briefly listening and closing.
func ReservePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "reserve a local port")
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// NewServer starts h on a test listener closed at the end of the test.
func NewServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// Client is a small bin API client bound to a base URL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client for baseURL with a short timeout.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Do sends a request and returns the status code and the full body.
func (c *Client) Do(t *testing.T, method, path string, header http.Header, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	require.NoError(t, err, "build %s %s", method, path)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.HTTP.Do(req)
	require.NoError(t, err, "%s %s", method, path)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "read body of %s %s", method, path)
	return resp.StatusCode, b
}

// CreateBin creates a bin and returns its summary.
func (c *Client) CreateBin(t *testing.T) bins.BinSummary {
	t.Helper()
	code, b := c.Do(t, http.MethodPost, "/rusqbins", nil, "")
	require.Equal(t, http.StatusOK, code, "create bin")
	var sum bins.BinSummary
	require.NoError(t, json.Unmarshal(b, &sum), "decode bin summary")
	return sum
}

// Summary fetches the summary of id. The summary is zero unless the status is 200.
func (c *Client) Summary(t *testing.T, id bins.ID) (int, bins.BinSummary) {
	t.Helper()
	code, b := c.Do(t, http.MethodGet, "/rusqbins/"+id.String(), nil, "")
	var sum bins.BinSummary
	if code == http.StatusOK {
		require.NoError(t, json.Unmarshal(b, &sum), "decode bin summary")
	}
	return code, sum
}

// Requests fetches the captured requests of id.
func (c *Client) Requests(t *testing.T, id bins.ID) (int, bins.Bin) {
	t.Helper()
	code, b := c.Do(t, http.MethodGet, "/rusqbins/"+id.String()+"/requests", nil, "")
	var bin bins.Bin
	if code == http.StatusOK {
		require.NoError(t, json.Unmarshal(b, &bin), "decode bin requests")
	}
	return code, bin
}

// List fetches every bin summary.
func (c *Client) List(t *testing.T) map[bins.ID]bins.BinSummary {
	t.Helper()
	code, b := c.Do(t, http.MethodGet, "/rusqbins", nil, "")
	require.Equal(t, http.StatusOK, code, "list bins")
	var out map[bins.ID]bins.BinSummary
	require.NoError(t, json.Unmarshal(b, &out), "decode bin list")
	return out
}

// DeleteBin deletes id and returns the status code.
func (c *Client) DeleteBin(t *testing.T, id bins.ID) int {
	t.Helper()
	code, _ := c.Do(t, http.MethodDelete, "/rusqbins/"+id.String(), nil, "")
	return code
}

// Capture sends method path with the bin header set to id and returns the status code.
func (c *Client) Capture(t *testing.T, id bins.ID, method, path string, header http.Header, body string) int {
	t.Helper()
	h := http.Header{}
	for k, vs := range header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set("X-Rusqbin-Id", id.String())
	code, _ := c.Do(t, method, path, h, body)
	return code
}
