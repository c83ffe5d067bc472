package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/ghshop/pkg/app"
	"github.com/ghuser/ghshop/pkg/auth"
	"github.com/ghuser/ghshop/services/shop/application/handlers"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
)

// ShopRoutes registers the shop endpoints on the provided chi router.
func ShopRoutes(r chi.Router, a *app.Application) {
	Routes(r, appsvcs.New(a), a)
}

// Routes mounts the endpoints over already wired services. The session
// endpoints are only mounted when a session store is configured.
func Routes(r chi.Router, svcs *appsvcs.Services, a *app.Application) {
	r.Route("/members", func(r chi.Router) {
		r.Post("/", handlers.NewPostMemberHandler(svcs).Execute)
		r.Get("/", handlers.NewListMembersHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetMemberHandler(svcs).Execute)
		r.Put("/{id}", handlers.NewPutMemberHandler(svcs).Execute)
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", handlers.NewPostItemHandler(svcs).Execute)
		r.Get("/", handlers.NewListItemsHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetItemHandler(svcs).Execute)
		r.Put("/{id}", handlers.NewPutItemHandler(svcs).Execute)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Post("/", handlers.NewPostCategoryHandler(svcs).Execute)
		r.Get("/", handlers.NewCategoryTreeHandler(svcs).Execute)
		r.Post("/{id}/items", handlers.NewLinkCategoryItemHandler(svcs).Execute)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handlers.NewPlaceOrderHandler(svcs).Execute)
		r.Get("/", handlers.NewSearchOrdersHandler(svcs).Execute)
		r.Get("/flat", handlers.NewFlatOrdersHandler(svcs).Execute)
		r.Get("/summaries", handlers.NewOrderSummariesHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetOrderHandler(svcs).Execute)
		r.Post("/{id}/cancel", handlers.NewCancelOrderHandler(svcs).Execute)
		r.Post("/{id}/delivery/complete", handlers.NewCompleteDeliveryHandler(svcs).Execute)
	})

	if a.SessionStore == nil {
		return
	}
	r.Route("/session", func(r chi.Router) {
		r.Post("/", handlers.NewSignInHandler(svcs, a.SessionStore).Execute)
		r.Delete("/", handlers.NewSignOutHandler(a.SessionStore).Execute)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireMember(a.SessionStore, a.Logger))
		r.Get("/me/orders", handlers.NewMyOrdersHandler(svcs).Execute)
	})
}
