// Package capture turns inbound *http.Request values into bins.Request records.
//
// Normalization reads the whole body before returning, so callers can hand the
// result to a store without holding any lock across network I/O.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jnovack/rusqbin/pkg/bins"
)

// ErrMalformed marks requests whose URI, query string or body cannot be
// represented in a captured record.
var ErrMalformed = errors.New("capture: malformed request")

// Normalizer builds captured records. The zero value is ready to use.
type Normalizer struct {
	// Now returns the capture time; defaults to time.Now.
	Now func() time.Time
}

// Normalize consumes r.Body and returns the captured record for r.
func (n *Normalizer) Normalize(r *http.Request) (bins.Request, error) {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	at := now()

	path := r.RequestURI
	if path == "" {
		path = r.URL.RequestURI()
	}

	u, err := url.ParseRequestURI(path)
	if err != nil {
		return bins.Request{}, fmt.Errorf("%w: uri %q: %v", ErrMalformed, path, err)
	}
	query, err := parseQuery(u.RawQuery)
	if err != nil {
		return bins.Request{}, err
	}

	body, err := readBody(r)
	if err != nil {
		return bins.Request{}, err
	}

	return bins.Request{
		ContentLength: contentLength(r.Header),
		ContentType:   headerValue(r.Header, "Content-Type"),
		Time:          at.UnixMilli(),
		Method:        r.Method,
		Path:          path,
		Body:          body,
		Headers:       copyHeaders(r),
		QueryString:   query,
	}, nil
}

// parseQuery splits on '&' only; a ';' is kept as part of the value.
func parseQuery(raw string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: query key %q: %v", ErrMalformed, k, err)
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: query value %q: %v", ErrMalformed, v, err)
		}
		out[key] = append(out[key], val)
	}
	return out, nil
}

func readBody(r *http.Request) (*string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrMalformed)
	}
	s := string(b)
	return &s, nil
}

// copyHeaders keeps every value of every header in arrival order. The server
// moves Host out of the header map, so it is put back here.
func copyHeaders(r *http.Request) map[string][]string {
	out := make(map[string][]string, len(r.Header)+1)
	for name, values := range r.Header {
		out[name] = append([]string(nil), values...)
	}
	if _, ok := out["Host"]; !ok && r.Host != "" {
		out["Host"] = []string{r.Host}
	}
	return out
}

func contentLength(h http.Header) *uint64 {
	v := h.Get("Content-Length")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func headerValue(h http.Header, name string) *string {
	if _, ok := h[http.CanonicalHeaderKey(name)]; !ok {
		return nil
	}
	v := h.Get(name)
	return &v
}
