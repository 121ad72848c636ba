package server

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/jnovack/rusqbin/pkg/bins"
)

// BinIDHeader selects the bin a request is captured into.
const BinIDHeader = "X-Rusqbin-Id"

// Op names the operation a request is routed to.
type Op string

const (
	OpBinSummary  Op = "get-bin-summary"
	OpDeleteBin   Op = "delete-bin"
	OpBinRequests Op = "get-bin-requests"
	OpListBins    Op = "list-bins"
	OpCreateBin   Op = "create-bin"
	OpCapture     Op = "capture-request"
	OpReject      Op = "reject"
)

var (
	binSummaryPath  = regexp.MustCompile(`^/rusqbins/(` + bins.IDPattern + `)$`)
	binRequestsPath = regexp.MustCompile(`^/rusqbins/(` + bins.IDPattern + `)/requests/?$`)
)

// rule pairs a predicate with the operation it selects. Rules are evaluated
// in order and the first match wins.
type rule struct {
	op    Op
	match func(r *http.Request) bool
}

var rules = []rule{
	{OpBinSummary, func(r *http.Request) bool {
		return r.Method == http.MethodGet && hasID(binSummaryPath, r.URL.EscapedPath())
	}},
	{OpDeleteBin, func(r *http.Request) bool {
		return r.Method == http.MethodDelete && hasID(binSummaryPath, r.URL.EscapedPath())
	}},
	{OpBinRequests, func(r *http.Request) bool {
		return r.Method == http.MethodGet && hasID(binRequestsPath, r.URL.EscapedPath())
	}},
	{OpListBins, func(r *http.Request) bool {
		return r.Method == http.MethodGet && isBinsRoot(r.URL.EscapedPath())
	}},
	{OpCreateBin, func(r *http.Request) bool {
		return r.Method == http.MethodPost && isBinsRoot(r.URL.EscapedPath())
	}},
	{OpCapture, func(r *http.Request) bool {
		_, ok := headerID(r)
		return ok
	}},
}

// Classify returns the operation r is routed to.
func Classify(r *http.Request) Op {
	for _, rl := range rules {
		if rl.match(r) {
			return rl.op
		}
	}
	return OpReject
}

func isBinsRoot(p string) bool {
	return p == "/rusqbins" || p == "/rusqbins/"
}

func hasID(re *regexp.Regexp, p string) bool {
	_, ok := pathID(re, p)
	return ok
}

// pathID extracts the identifier from an escaped path, so an encoded slash
// never splits a segment.
func pathID(re *regexp.Regexp, p string) (bins.ID, bool) {
	m := re.FindStringSubmatch(p)
	if m == nil {
		return "", false
	}
	return bins.ParseID(m[1])
}

func headerID(r *http.Request) (bins.ID, bool) {
	v := r.Header.Get(BinIDHeader)
	if v == "" {
		return "", false
	}
	return bins.ParseID(v)
}

// Routes returns the bin API handler. Every request is answered by exactly
// one operation; requests matching no rule are rejected with 400.
func (s *Server) Routes() http.Handler {
	handlers := map[Op]http.HandlerFunc{
		OpBinSummary:  s.handleBinSummary,
		OpDeleteBin:   s.handleDeleteBin,
		OpBinRequests: s.handleBinRequests,
		OpListBins:    s.handleListBins,
		OpCreateBin:   s.handleCreateBin,
		OpCapture:     s.handleCapture,
	}

	r := mux.NewRouter().SkipClean(true)
	for _, rl := range rules {
		match := rl.match
		r.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
			return match(req)
		}).Handler(s.instrument(rl.op, handlers[rl.op])).Name(string(rl.op))
	}
	reject := s.instrument(OpReject, http.HandlerFunc(s.handleReject))
	r.NotFoundHandler = reject
	r.MethodNotAllowedHandler = reject
	return r
}
