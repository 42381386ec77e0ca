package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"merchant-analytics-layer/internal/domain"
)

// OrderReader is the read-only slice of order persistence the API needs.
type OrderReader interface {
	List(ctx context.Context, orgID uint, start, end string) ([]*domain.Order, error)
}

// CustomerReader is the read-only slice of customer persistence the API needs.
type CustomerReader interface {
	List(ctx context.Context, orgID uint) ([]*domain.Customer, error)
}

var knownIntegrations = map[string]bool{
	domain.IntegrationAmazonAds:   true,
	domain.IntegrationAmazonSPAPI: true,
	domain.IntegrationShopify:     true,
	domain.IntegrationPostHog:     true,
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.logger.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, map[string]string{"error": message})
}

// dateRange reads start/end query parameters, defaulting to the last 30 days.
func dateRange(r *http.Request) (string, string) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if end == "" {
		end = time.Now().Format("2006-01-02")
	}
	if start == "" {
		start = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}
	return start, end
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	products, err := s.products.ListProducts(r.Context(), orgID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		s.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	s.respond(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	created, err := s.products.CreateProduct(r.Context(), orgID, &product)
	if err != nil {
		s.logger.Error().Err(err).Str("sku", product.SKU).Msg("Failed to create product")
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respond(w, http.StatusCreated, created)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	sku := chi.URLParam(r, "sku")

	product, err := s.products.GetProduct(r.Context(), orgID, sku)
	if err != nil {
		s.logger.Error().Err(err).Str("sku", sku).Msg("Failed to get product")
		s.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		s.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	s.respond(w, http.StatusOK, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	sku := chi.URLParam(r, "sku")

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	updated, err := s.products.UpdateProduct(r.Context(), orgID, sku, &product)
	if err != nil {
		s.logger.Error().Err(err).Str("sku", sku).Msg("Failed to update product")
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	sku := chi.URLParam(r, "sku")

	if err := s.products.DeleteProduct(r.Context(), orgID, sku); err != nil {
		s.logger.Error().Err(err).Str("sku", sku).Msg("Failed to delete product")
		s.respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	start, end := dateRange(r)

	orders, err := s.orders.List(r.Context(), orgID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list orders")
		s.respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	s.respond(w, http.StatusOK, orders)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())

	customers, err := s.customers.List(r.Context(), orgID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list customers")
		s.respondError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	s.respond(w, http.StatusOK, customers)
}

func (s *Server) campaignReport(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	start, end := dateRange(r)

	report, err := s.reports.CampaignReport(r.Context(), orgID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build campaign report")
		s.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	s.respond(w, http.StatusOK, report)
}

func (s *Server) salesTrafficReport(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	start, end := dateRange(r)

	report, err := s.reports.SalesTrafficReport(r.Context(), orgID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build sales traffic report")
		s.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	s.respond(w, http.StatusOK, report)
}

func (s *Server) ordersReport(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	start, end := dateRange(r)

	report, err := s.reports.OrdersReport(r.Context(), orgID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build orders report")
		s.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	s.respond(w, http.StatusOK, report)
}

// importAds accepts a multipart upload under the "file" field and runs the
// spreadsheet import for the org.
func (s *Server) importAds(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		s.respondError(w, http.StatusBadRequest, "only .csv and .xlsx files are supported")
		return
	}

	// The importer reads from disk, so spool the upload to a temp file.
	tmp, err := os.CreateTemp("", "ad-import-*"+ext)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create temp file for import")
		s.respondError(w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.logger.Error().Err(err).Msg("Failed to spool import upload")
		s.respondError(w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	tmp.Close()

	result, err := s.adImport.ImportFile(r.Context(), orgID, tmp.Name())
	if err != nil {
		s.logger.Error().Err(err).Str("file", header.Filename).Msg("Ad import failed")
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) saveCredentials(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	integration := chi.URLParam(r, "integration")
	if !knownIntegrations[integration] {
		s.respondError(w, http.StatusNotFound, "unknown integration")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid credential payload")
		return
	}

	if err := s.credentials.SaveCredentials(r.Context(), orgID, integration, payload); err != nil {
		s.logger.Error().Err(err).Str("integration", integration).Msg("Failed to save credentials")
		s.respondError(w, http.StatusInternalServerError, "failed to save credentials")
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) deleteCredentials(w http.ResponseWriter, r *http.Request) {
	orgID := domain.GetOrgIDFromContext(r.Context())
	integration := chi.URLParam(r, "integration")
	if !knownIntegrations[integration] {
		s.respondError(w, http.StatusNotFound, "unknown integration")
		return
	}

	if err := s.credentials.DeleteCredentials(r.Context(), orgID, integration); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete credentials")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
