package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func TestClassify(t *testing.T) {
	upper := strings.ToUpper(testID)
	v1 := "0f8fad5b-d9cb-169f-a165-70867728950e"

	cases := []struct {
		name   string
		method string
		path   string
		header string
		want   Op
	}{
		{"create", http.MethodPost, "/rusqbins", "", OpCreateBin},
		{"create trailing slash", http.MethodPost, "/rusqbins/", "", OpCreateBin},
		{"list", http.MethodGet, "/rusqbins", "", OpListBins},
		{"list trailing slash", http.MethodGet, "/rusqbins/", "", OpListBins},
		{"summary", http.MethodGet, "/rusqbins/" + testID, "", OpBinSummary},
		{"summary upper case id", http.MethodGet, "/rusqbins/" + upper, "", OpBinSummary},
		{"delete", http.MethodDelete, "/rusqbins/" + testID, "", OpDeleteBin},
		{"requests", http.MethodGet, "/rusqbins/" + testID + "/requests", "", OpBinRequests},
		{"requests trailing slash", http.MethodGet, "/rusqbins/" + testID + "/requests/", "", OpBinRequests},
		{"management wins over header", http.MethodGet, "/rusqbins/" + testID, testID, OpBinSummary},
		{"capture any path", http.MethodGet, "/hello", testID, OpCapture},
		{"capture upper case header", http.MethodPatch, "/a/b/c", upper, OpCapture},
		{"capture unmatched method on bins root", http.MethodPut, "/rusqbins", testID, OpCapture},
		{"capture delete of requests path", http.MethodDelete, "/rusqbins/" + testID + "/requests", testID, OpCapture},
		{"invalid path id falls through to capture", http.MethodGet, "/rusqbins/not-an-id", testID, OpCapture},
		{"invalid path id without header", http.MethodGet, "/rusqbins/not-an-id", "", OpReject},
		{"non v4 id is not an id", http.MethodGet, "/rusqbins/" + v1, "", OpReject},
		{"trailing garbage after id", http.MethodGet, "/rusqbins/" + testID + "x", "", OpReject},
		{"encoded slash without header", http.MethodGet, "/rusqbins%2F" + testID, "", OpReject},
		{"encoded slash with header", http.MethodGet, "/rusqbins%2F" + testID, testID, OpCapture},
		{"encoded slash before requests", http.MethodGet, "/rusqbins/" + testID + "%2Frequests", "", OpReject},
		{"nested prefix", http.MethodGet, "/api/rusqbins/" + testID, "", OpReject},
		{"no header", http.MethodGet, "/hello", "", OpReject},
		{"invalid header", http.MethodGet, "/hello", "nope", OpReject},
		{"put on bins root without header", http.MethodPut, "/rusqbins", "", OpReject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				r.Header.Set(BinIDHeader, tc.header)
			}
			assert.Equal(t, tc.want, Classify(r))
		})
	}
}

func TestPathIDCanonical(t *testing.T) {
	id, ok := pathID(binSummaryPath, "/rusqbins/"+strings.ToUpper(testID))
	assert.True(t, ok)
	assert.Equal(t, testID, id.String())

	_, ok = pathID(binRequestsPath, "/rusqbins/"+testID)
	assert.False(t, ok, "summary path is not a requests path")
}

func TestRoutesDoesNotRedirect(t *testing.T) {
	s := New(Config{})
	h := s.Routes()

	for _, p := range []string{"//double", "/a/../b", "/./x"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.URL.Path = p
		r.RequestURI = p
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "path %q", p)
	}
}
