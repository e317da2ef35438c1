package handler

import (
	"context"
	"net/http"

	"github.com/ArtemMoroz51/quizbox/internal/storage"
	"github.com/ArtemMoroz51/quizbox/internal/ws"
	"go.uber.org/zap"
)

// StorageControl exposes which backend is serving and a way to retry the
// primary one.
type StorageControl interface {
	State() storage.State
	Reconnect(ctx context.Context) error
}

type storageResp struct {
	State string `json:"state"`
}

func RegisterHandlers(mux *http.ServeMux, ctl StorageControl, hub *ws.Hub, info Info, token string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	mux.HandleFunc("GET /api/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	})

	mux.HandleFunc("GET /api/storage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, storageResp{State: ctl.State().String()})
	})

	mux.HandleFunc("POST /api/storage/reconnect", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := ctl.Reconnect(ctx); err != nil {
			log.Warn("storage reconnect failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, statusResp{Status: "reconnect failed: " + err.Error()})
			return
		}
		state := ctl.State()
		log.Info("storage reconnect requested", zap.Stringer("state", state))
		writeJSON(w, http.StatusOK, storageResp{State: state.String()})
	}))

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		log.Info("ws connect attempt", zap.String("remote", r.RemoteAddr))
		hub.ServeWS(w, r)
	})
}

// Info names the running application.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}
