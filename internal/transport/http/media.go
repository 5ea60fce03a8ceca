package http

import (
	"net/http"
	"path"
	"strconv"
)

const mediaMaxAge = 3600

// serveMedia streams an uploaded object through the blob cache.
func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request) {
	if s.media == nil || s.uploader == nil {
		http.NotFound(w, r)
		return
	}
	name := path.Clean("/" + r.PathValue("name"))[1:]
	if name == "" {
		http.NotFound(w, r)
		return
	}
	data, err := s.media.Fetch(r.Context(), s.uploader.URL(name))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(mediaMaxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
