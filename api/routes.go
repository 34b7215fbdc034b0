package api

import (
	"io"
	"log"
	"net/http"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"tamilstream/handlers"
)

// corsMiddleware opens every response to cross-origin players and answers preflights.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts the addon endpoints onto r. Every addon route exists both bare and
// under a leading user configuration segment. posters may be nil.
func Register(r *mux.Router, addon *handlers.AddonHandler, posters *handlers.PosterProxy) {
	r.Use(corsMiddleware)

	r.HandleFunc("/health", addon.Health).Methods(http.MethodGet)
	if posters != nil {
		r.HandleFunc("/poster", posters.Serve).Methods(http.MethodGet)
	}

	for _, prefix := range []string{"", "/{config}"} {
		r.HandleFunc(prefix+"/manifest.json", addon.Manifest).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/{type}/{id}.json", addon.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/{type}/{id}/{extra}.json", addon.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/meta/{type}/{id}.json", addon.Meta).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/stream/{type}/{id}.json", addon.Stream).Methods(http.MethodGet)
	}

	r.PathPrefix("/").HandlerFunc(addon.Options).Methods(http.MethodOptions)
}

// NewHandler builds the full HTTP stack: routes, access log and panic recovery.
func NewHandler(addon *handlers.AddonHandler, posters *handlers.PosterProxy, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	Register(r, addon, posters)

	var h http.Handler = r
	h = ghandlers.CombinedLoggingHandler(accessLog, h)
	h = ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(log.Default()),
		ghandlers.PrintRecoveryStack(true),
	)(h)
	return h
}
