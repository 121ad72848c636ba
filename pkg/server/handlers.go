package server

import (
	"net/http"

	"github.com/jnovack/rusqbin/pkg/bins"
)

func (s *Server) handleBinSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(binSummaryPath, r.URL.EscapedPath())
	if !ok {
		s.fail(w, r, ErrUnforeseen)
		return
	}
	sum, err := s.store.Summary(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleDeleteBin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(binSummaryPath, r.URL.EscapedPath())
	if !ok {
		s.fail(w, r, ErrUnforeseen)
		return
	}
	if err := s.store.DeleteBin(id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.m.DecBins()
	reqLogger(r).Info().Str("bin", id.String()).Msg("bin deleted")
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleBinRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(binRequestsPath, r.URL.EscapedPath())
	if !ok {
		s.fail(w, r, ErrUnforeseen)
		return
	}
	bin, err := s.store.Bin(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bin == nil {
		bin = bins.Bin{}
	}
	writeJSON(w, r, http.StatusOK, bin)
}

func (s *Server) handleListBins(w http.ResponseWriter, r *http.Request) {
	sums, err := s.store.Summaries()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sums)
}

func (s *Server) handleCreateBin(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.CreateBin()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.m.IncBins()
	reqLogger(r).Info().Str("bin", sum.ID.String()).Msg("bin created")
	writeJSON(w, r, http.StatusOK, sum)
}

// handleCapture records r into the bin named by its X-Rusqbin-Id header. The
// request is fully read and normalized before the store is touched.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	id, ok := headerID(r)
	if !ok {
		s.fail(w, r, ErrUnforeseen)
		return
	}
	req, err := s.norm.Normalize(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.InsertRequest(id, req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.m.IncCaptured()
	reqLogger(r).Debug().Str("bin", id.String()).Msg("request captured")
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	reqLogger(r).Debug().Msg("no route")
	writeStatus(w, http.StatusBadRequest)
}
