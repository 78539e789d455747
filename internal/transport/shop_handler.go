package transport

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"kantin-kiosk/internal/checkout"
	"kantin-kiosk/internal/middleware"
	"kantin-kiosk/internal/repository"
	"kantin-kiosk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItemRequest adds one unit of a product to the session cart
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// ChangeQuantityRequest adjusts a cart line by delta
type ChangeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// ConfirmRequest carries the buyer name for the payment step
type ConfirmRequest struct {
	BuyerName string `json:"buyer_name" validate:"required"`
}

// ProofRequest carries the captured payment-proof image as a base64
// data URL (the kiosk camera produces data:image/jpeg;base64,... strings)
type ProofRequest struct {
	Image string `json:"image" validate:"required"`
}

// ShopHandler handles the anonymous kiosk surface: the product listing
// and the checkout session lifecycle.
type ShopHandler struct {
	catalog  service.CatalogService
	manager  *checkout.Manager
	workflow *checkout.Workflow
	logger   *zap.Logger
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(catalog service.CatalogService, manager *checkout.Manager, workflow *checkout.Workflow, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		catalog:  catalog,
		manager:  manager,
		workflow: workflow,
		logger:   logger,
	}
}

// RegisterRoutes registers the kiosk routes. proofLimiter guards the
// oracle-backed proof endpoint; pass nil to register it unthrottled.
func (h *ShopHandler) RegisterRoutes(r chi.Router, proofLimiter func(http.Handler) http.Handler) {
	r.Get("/api/products", h.ListProducts)

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", h.OpenSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/state", h.GetState)
			r.Post("/cart/items", h.AddItem)
			r.Patch("/cart/items/{productID}", h.ChangeQuantity)
			r.Post("/confirm", h.Confirm)
			r.Post("/retry", h.Retry)
			r.Post("/cancel", h.Cancel)
			r.Post("/close", h.CloseSession)

			if proofLimiter != nil {
				r.With(proofLimiter).Post("/proof", h.SubmitProof)
			} else {
				r.Post("/proof", h.SubmitProof)
			}
		})
	})
}

// ListProducts returns the in-stock catalog for the shop grid
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), true)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// OpenSession starts a new checkout session in the review step
func (h *ShopHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	s := h.manager.Open()
	middleware.RespondWithJSON(w, http.StatusCreated, s.Snapshot())
}

// GetState returns the current session snapshot
func (h *ShopHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// AddItem handles adding a product to the session cart
func (h *ShopHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to fetch product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	if product.Stock <= 0 {
		middleware.RespondWithError(w, http.StatusConflict, "product out of stock")
		return
	}

	if err := h.workflow.AddItem(s, *product); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// ChangeQuantity adjusts a cart line by the signed delta in the body.
// A line reaching zero is removed; deltas on unknown products are no-ops.
func (h *ShopHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ChangeQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.workflow.ChangeQuantity(s, productID, req.Delta); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// Confirm handles the buyer identity step, moving the session to payment
func (h *ShopHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.workflow.ConfirmIdentity(s, req.BuyerName); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// SubmitProof accepts the payment-proof image and blocks until the
// session settles in success or error.
func (h *ShopHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ProofRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := decodeProofImage(req.Image)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid proof image encoding")
		return
	}

	if err := h.workflow.SubmitProof(r.Context(), s, image); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// Retry moves an errored session back to the payment step
func (h *ShopHandler) Retry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.workflow.Retry(s); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// Cancel abandons the session without committing
func (h *ShopHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.workflow.Cancel(s); err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.manager.Remove(s.ID())
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "checkout cancelled"})
}

// CloseSession ends a finished session. Idempotent.
func (h *ShopHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	h.workflow.Close(s)
	h.manager.Remove(s.ID())
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "checkout closed"})
}

// session resolves the sessionID path parameter, responding 404 when the
// session is unknown or already swept.
func (h *ShopHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, err := h.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "checkout session not found")
		return nil, false
	}
	return s, true
}

func (h *ShopHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "checkout session not found")
	case errors.Is(err, checkout.ErrSessionClosed):
		middleware.RespondWithError(w, http.StatusGone, "checkout session closed")
	case errors.Is(err, checkout.ErrWrongStep):
		middleware.RespondWithError(w, http.StatusConflict, "operation not allowed in current step")
	case errors.Is(err, checkout.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, checkout.ErrEmptyBuyerName):
		middleware.RespondWithError(w, http.StatusBadRequest, "buyer name is required")
	case errors.Is(err, checkout.ErrMixedSellers):
		middleware.RespondWithError(w, http.StatusBadRequest, "cart contains products from multiple sellers")
	case errors.Is(err, checkout.ErrEmptyProof):
		middleware.RespondWithError(w, http.StatusBadRequest, "proof image is empty")
	case errors.Is(err, checkout.ErrProofTooLarge):
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "proof image too large")
	default:
		h.logger.Error("Checkout operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "checkout operation failed")
	}
}

// decodeProofImage strips an optional data-URL prefix and decodes the
// base64 payload.
func decodeProofImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx >= 0 {
			s = s[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
