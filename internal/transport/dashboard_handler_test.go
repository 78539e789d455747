package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/middleware"
	"kantin-kiosk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth struct {
	token string
	user  *domain.User
	err   error
}

func (a *stubAuth) Register(ctx context.Context, email, password, name, role string) (*domain.User, error) {
	return a.user, a.err
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if a.err != nil {
		return "", nil, a.err
	}
	return a.token, a.user, nil
}

func (a *stubAuth) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

type stubSales struct {
	transactions []*domain.Transaction
	lastUserID   uuid.UUID
	lastRole     string
}

func (s *stubSales) ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]*domain.Transaction, error) {
	s.lastUserID = userID
	s.lastRole = role
	return s.transactions, nil
}

// fakeAuth injects the given identity the way the JWT middleware would
func fakeAuth(userID uuid.UUID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID.String())
			ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type dashboardFixture struct {
	router  chi.Router
	auth    *stubAuth
	catalog *stubCatalog
	sales   *stubSales
	userID  uuid.UUID
}

func newDashboardFixture(t *testing.T, role string) *dashboardFixture {
	t.Helper()

	userID := uuid.New()
	auth := &stubAuth{
		token: "test-token",
		user: &domain.User{
			ID:    userID,
			Email: "budi@kantin.id",
			Name:  "Budi",
			Role:  role,
		},
	}
	catalog := &stubCatalog{products: map[uuid.UUID]*domain.Product{}}
	sales := &stubSales{}

	handler := NewDashboardHandler(auth, catalog, sales, zap.NewNop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router, fakeAuth(userID, role))

	return &dashboardFixture{
		router:  router,
		auth:    auth,
		catalog: catalog,
		sales:   sales,
		userID:  userID,
	}
}

func (f *dashboardFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestDashboardHandler_Login(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	w := f.do(t, "POST", "/api/auth/login", LoginRequest{
		Email:    "budi@kantin.id",
		Password: "kantin123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test-token", resp.Token)
	assert.Equal(t, "Budi", resp.User.Name)
	assert.Equal(t, domain.RoleSeller, resp.User.Role)
}

func TestDashboardHandler_LoginInvalidCredentials(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)
	f.auth.err = service.ErrInvalidCredentials

	w := f.do(t, "POST", "/api/auth/login", LoginRequest{
		Email:    "budi@kantin.id",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardHandler_LoginValidatesPayload(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	w := f.do(t, "POST", "/api/auth/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardHandler_TransactionsScopedToSeller(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	w := f.do(t, "GET", "/api/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, f.userID, f.sales.lastUserID)
	assert.Equal(t, domain.RoleSeller, f.sales.lastRole)
}

func TestDashboardHandler_TransactionsAdminSeesAll(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleAdmin)
	f.sales.transactions = []*domain.Transaction{
		{ID: "TRX-AB12CD34", TotalAmount: 15000, BuyerName: "Ahmad", Status: domain.TransactionCompleted},
	}

	w := f.do(t, "GET", "/api/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.RoleAdmin, f.sales.lastRole)

	var transactions []*domain.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, "TRX-AB12CD34", transactions[0].ID)
}

func TestDashboardHandler_CreateProduct(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	w := f.do(t, "POST", "/api/products", CreateProductRequest{
		Name:     "Es Teh Manis",
		Price:    5000,
		Stock:    20,
		Category: "drink",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Es Teh Manis", created.Name)
	// Ownership comes from the token, not the payload
	assert.Equal(t, f.userID, created.SellerID)
}

func TestDashboardHandler_CreateProductAllowsFreeItems(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	// Promotional giveaways are priced at zero
	w := f.do(t, "POST", "/api/products", CreateProductRequest{
		Name:     "Air Mineral Gratis",
		Price:    0,
		Stock:    10,
		Category: "drink",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(0), created.Price)
}

func TestDashboardHandler_RejectsUnrecognizedRole(t *testing.T) {
	f := newDashboardFixture(t, "customer")

	w := f.do(t, "GET", "/api/transactions", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, "POST", "/api/products", CreateProductRequest{
		Name:     "Es Teh Manis",
		Price:    5000,
		Category: "drink",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboardHandler_CreateProductRejectsBadCategory(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	w := f.do(t, "POST", "/api/products", CreateProductRequest{
		Name:     "Es Teh Manis",
		Price:    5000,
		Category: "beverage",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardHandler_DeleteProduct(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	productID := uuid.New()
	f.catalog.products[productID] = &domain.Product{ID: productID, Name: "Keripik"}

	w := f.do(t, "DELETE", "/api/products/"+productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.catalog.products)

	w = f.do(t, "DELETE", "/api/products/"+productID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandler_ListAllIncludesOutOfStock(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleSeller)

	soldOut := uuid.New()
	f.catalog.products[soldOut] = &domain.Product{ID: soldOut, Name: "Habis", Stock: 0}

	w := f.do(t, "GET", "/api/products/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []*domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Habis", products[0].Name)
}
