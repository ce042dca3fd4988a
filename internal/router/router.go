// Package router sets up all HTTP routes and middleware chains for the
// printforge server. Public storefront routes are open; the dashboard
// and every mutating catalog route sit behind owner authentication.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"printforge/internal/handlers"
	"printforge/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(public *handlers.Public, dashboard *handlers.Dashboard, jwtSecret string) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	// Public storefront API.
	r.Get("/catalog/{kind}", public.List)
	r.Get("/catalog/{kind}/{id}", public.Detail)
	r.Get("/categories", public.Categories)

	// Owner-only routes: catalog mutations, categories, and the draft.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner(jwtSecret))

		r.Route("/catalog/{kind}", func(r chi.Router) {
			r.Post("/", dashboard.EntryCreate)
			r.Put("/{id}", dashboard.EntryUpdate)
			r.Delete("/{id}", dashboard.EntryDelete)
			r.Post("/{id}/add-image", dashboard.AddImage)
			r.Post("/{id}/add-file", dashboard.AddFile)
			r.Post("/{id}/remove-image", dashboard.RemoveImage)
			r.Post("/{id}/remove-file", dashboard.RemoveFile)
			r.Post("/{id}/update-thumb", dashboard.UpdateThumb)
		})

		r.Post("/categories", dashboard.CategoryCreate)
		r.Delete("/categories/{id}", dashboard.CategoryDelete)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/catalog/{kind}", dashboard.EntryList)

			r.Route("/draft", func(r chi.Router) {
				r.Get("/", dashboard.DraftShow)
				r.Patch("/", dashboard.DraftSetFields)
				r.Post("/{kind}/new", dashboard.DraftStartNew)
				r.Post("/{kind}/edit/{id}", dashboard.DraftStartEdit)
				r.Post("/thumbnail", dashboard.DraftThumbnail)
				r.Post("/gallery", dashboard.DraftAddGallery)
				r.Post("/files", dashboard.DraftAddFile)
				r.Delete("/assets/{assetId}", dashboard.DraftRemoveAsset)
				r.Post("/save", dashboard.DraftSave)
				r.Post("/cancel", dashboard.DraftCancel)
				r.Get("/preview/{assetId}", dashboard.DraftPreview)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
