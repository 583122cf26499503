package rest

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (that *Server) pingHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Warn("failed to write ping response", "error", err)
	}
}
