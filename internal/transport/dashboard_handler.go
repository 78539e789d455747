package transport

import (
	"errors"
	"net/http"

	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/middleware"
	"kantin-kiosk/internal/repository"
	"kantin-kiosk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest represents the dashboard login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// UserProfile represents dashboard user data
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Category    string `json:"category" validate:"required,oneof=food drink snack other"`
	ImageURL    string `json:"image_url"`
}

// DashboardHandler handles the authenticated seller/admin surface:
// sales history and product management.
type DashboardHandler struct {
	auth    service.AuthService
	catalog service.CatalogService
	sales   service.SalesService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(auth service.AuthService, catalog service.CatalogService, sales service.SalesService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		auth:    auth,
		catalog: catalog,
		sales:   sales,
		logger:  logger,
	}
}

// RegisterRoutes registers dashboard routes. The public kiosk listing at
// GET /api/products belongs to the shop handler; the management list
// lives at /api/products/all.
func (h *DashboardHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireRole([]string{domain.RoleSeller, domain.RoleAdmin}, h.logger))
		r.Get("/api/transactions", h.ListTransactions)
		r.Get("/api/products/all", h.ListAllProducts)
		r.Get("/api/products/low-stock", h.ListLowStock)
		r.Post("/api/products", h.CreateProduct)
		r.Delete("/api/products/{productID}", h.DeleteProduct)
	})
}

// Login authenticates a seller or admin and returns a JWT token
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	response := LoginResponse{
		Token: token,
		User: UserProfile{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}

	h.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// ListTransactions returns the sales history, scoped to the seller's own
// sales unless the caller is an admin.
func (h *DashboardHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	transactions, err := h.sales.ListForUser(r.Context(), userID, role)
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, transactions)
}

// ListAllProducts returns the unfiltered catalog for management
func (h *DashboardHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListLowStock returns products at or below the low-stock threshold,
// scoped like the sales history.
func (h *DashboardHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	var sellerID *uuid.UUID
	if role != domain.RoleAdmin {
		sellerID = &userID
	}

	products, err := h.catalog.ListLowStock(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("Failed to list low-stock products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list low-stock products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct inserts a product owned by the calling seller
func (h *DashboardHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    domain.Category(req.Category),
		ImageURL:    req.ImageURL,
		SellerID:    userID,
	}

	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// DeleteProduct removes a product from the catalog
func (h *DashboardHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// caller extracts the authenticated user id and role from the context
func (h *DashboardHandler) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.logger.Error("Invalid user ID in context", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return uuid.Nil, "", false
	}

	role, ok := middleware.GetUserRole(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, "", false
	}

	return userID, role, true
}
