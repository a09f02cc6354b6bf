package handler

import (
	"net/http"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
)

func SetupRoutes(mux *http.ServeMux, h *RequestHandler, m *auth.Manager) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return auth.Middleware(m, fn)
	}

	mux.Handle("POST /requests", authed(h.CreateRequest))
	mux.Handle("GET /requests/mine", authed(h.ListMine))
	mux.Handle("GET /requests/pending", authed(h.ListPending))
	mux.HandleFunc("GET /requests/{request_id}", h.GetRequest)
	mux.Handle("GET /requests/{request_id}/candidates", authed(h.Candidates))
	mux.Handle("POST /requests/{request_id}/assign", authed(h.Assign))
	mux.Handle("POST /requests/{request_id}/match", authed(h.Match))
	mux.Handle("POST /requests/{request_id}/respond", authed(h.Respond))
	mux.Handle("POST /requests/{request_id}/start", authed(h.StartWork))
	mux.Handle("POST /requests/{request_id}/complete", authed(h.Complete))
	mux.Handle("POST /requests/{request_id}/cancel", authed(h.Cancel))
}
