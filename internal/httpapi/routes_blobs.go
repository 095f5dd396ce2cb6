package httpapi

import (
	"net/http"
)

func (s *Server) registerBlobRoutes() {
	s.mux.HandleFunc("GET /api/blobs/{id}", s.authed(s.handleGetBlob))
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	blobID := r.PathValue("id")
	data, err := s.deps.Store.BlobData(s.deps.InternalKey, blobID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "Blob not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
