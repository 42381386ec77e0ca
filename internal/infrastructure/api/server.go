package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/application"
)

// Server wires the dashboard REST surface over the application services.
type Server struct {
	credentials *application.CredentialsService
	products    *application.ProductService
	reports     *application.ReportService
	adImport    *application.AdImportService
	orders      OrderReader
	customers   CustomerReader
	logger      zerolog.Logger
}

// NewServer creates a new API server
func NewServer(
	credentials *application.CredentialsService,
	products *application.ProductService,
	reports *application.ReportService,
	adImport *application.AdImportService,
	orders OrderReader,
	customers CustomerReader,
	logger zerolog.Logger,
) *Server {
	return &Server{
		credentials: credentials,
		products:    products,
		reports:     reports,
		adImport:    adImport,
		orders:      orders,
		customers:   customers,
		logger:      logger,
	}
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes, no org header required
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(OrgIDMiddleware())

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Post("/", s.createProduct)
			r.Get("/{sku}", s.getProduct)
			r.Put("/{sku}", s.updateProduct)
			r.Delete("/{sku}", s.deleteProduct)
		})

		r.Get("/orders", s.listOrders)
		r.Get("/customers", s.listCustomers)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/campaigns", s.campaignReport)
			r.Get("/sales-traffic", s.salesTrafficReport)
			r.Get("/orders", s.ordersReport)
		})

		r.Post("/imports/ads", s.importAds)

		r.Route("/settings/credentials", func(r chi.Router) {
			r.Put("/{integration}", s.saveCredentials)
			r.Delete("/{integration}", s.deleteCredentials)
		})
	})

	return r
}
