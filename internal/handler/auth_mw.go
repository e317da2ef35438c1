package handler

import (
	"crypto/subtle"
	"net/http"
)

// requireToken guards state-changing routes. An empty token leaves them open.
func requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	want := []byte("Bearer " + token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeJSON(w, http.StatusUnauthorized, statusResp{Status: "unauthorized"})
			return
		}
		next(w, r)
	}
}
