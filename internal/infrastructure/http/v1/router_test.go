package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/analytics"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/reports"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/export"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/metrics"
	"shopledger/internal/infrastructure/storage/memory"
	"shopledger/internal/infrastructure/storage/postgres"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
	authSvc *auth.Service
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T, mutate func(*RouterConfig)) *testAPI {
	t.Helper()
	store := memory.NewStore()

	authCfg := auth.DefaultServiceConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	authSvc := auth.NewService(store.Users(), store, auth.NewJWTService(auth.DefaultJWTConfig("test-secret")), authCfg)

	productSvc := product.NewService(store.Products(), store, nil, nil)
	saleSvc := sales.NewService(sales.Deps{
		Repo:      store.Sales(),
		Inventory: store.Products(),
		Numerator: store.Numbers,
		TxManager: store,
	}, sales.DefaultConfig())
	expenseSvc := expense.NewService(store.Expenses(), store, nil)
	m := metrics.New()

	cfg := RouterConfig{
		AuthService:        authSvc,
		ProductService:     productSvc,
		SaleService:        saleSvc,
		ExpenseService:     expenseSvc,
		AnalyticsService:   analytics.NewService(store.Sales(), store.Products(), store.Expenses(), nil),
		ReportService:      reports.NewService(store.Sales(), store.Expenses(), export.XLSX{}),
		Metrics:            m,
		CORSAllowedOrigins: []string{"https://till.example"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testAPI{t: t, handler: NewRouter(cfg), store: store, authSvc: authSvc, metrics: m}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(email, password, role string) string {
	a.t.Helper()
	_, err := a.authSvc.CreateUser(context.Background(), auth.SignupRequest{Name: "Till", Email: email, Password: password}, role)
	require.NoError(a.t, err)

	session, err := a.authSvc.Login(context.Background(), auth.Credentials{Email: email, Password: password})
	require.NoError(a.t, err)
	return session.AccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequiresAuth(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestRouter_SignupLoginCookie(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@shop.test", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@shop.test", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	api.handler.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	var user struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &user))
	assert.Equal(t, "ada@shop.test", user.Email)
	assert.Equal(t, appctx.RoleUser, user.Role)
}

func TestRouter_ProductWritesAreAdminOnly(t *testing.T) {
	api := newTestAPI(t, nil)
	userToken := api.login("clerk@shop.test", "secret1", appctx.RoleUser)
	adminToken := api.login("boss@shop.test", "secret1", appctx.RoleAdmin)

	body := map[string]any{"name": "Toyota blade", "category": "Blade", "price": 12.5, "stock": 20}

	w := api.do(http.MethodPost, "/api/v1/products", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/v1/products", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created product.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, product.DefaultMinStock, created.MinStock)
	assert.Equal(t, product.StatusInStock, created.Status)

	w = api.do(http.MethodGet, "/api/v1/products/"+created.ID.String(), userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/products/not-a-uuid", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CheckoutConsolidatesOpenTab(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login("clerk@shop.test", "secret1", appctx.RoleUser)

	p := product.NewProduct("Fob", product.CategoryRemoteKeyDiy, types.MustMoney("50"), 10, 2, "KeyDIY")
	require.NoError(t, api.store.Products().Create(context.Background(), p))

	checkout := func(paid float64) (int, sales.CheckoutResult) {
		w := api.do(http.MethodPost, "/api/v1/sales/checkout", token, map[string]any{
			"customerName":  "Ada",
			"paymentMethod": "Half Payment",
			"amountPaid":    paid,
			"items":         []map[string]any{{"productId": p.ID.String(), "quantity": 1}},
		})
		var res sales.CheckoutResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
		return w.Code, res
	}

	code, first := checkout(20)
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, first.Consolidated)
	assert.Equal(t, "INV-0001", first.Sale.InvoiceID)
	assert.Equal(t, sales.StatusPartialPayment, first.Sale.Status)

	code, second := checkout(30)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, second.Consolidated)
	assert.Equal(t, "INV-0001", second.Sale.InvoiceID)
	assert.True(t, second.Sale.Total.Equal(types.MustMoney("100")))
	assert.True(t, second.Sale.RemainingBalance.Equal(types.MustMoney("50")))

	w := api.do(http.MethodGet, "/api/v1/sales/outstanding", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outstanding":50,"openTabs":1}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/sales/"+first.Sale.ID.String()+"/payment", token, map[string]any{"additionalPayment": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/sales/"+first.Sale.ID.String()+"/payment", token, map[string]any{"additionalPayment": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SALE_CLOSED", errorCode(t, w))
}

func TestRouter_AnalyticsIsAdminOnly(t *testing.T) {
	api := newTestAPI(t, nil)
	userToken := api.login("clerk@shop.test", "secret1", appctx.RoleUser)
	adminToken := api.login("boss@shop.test", "secret1", appctx.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/analytics", userToken, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/analytics", adminToken, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/dashboard", userToken, nil).Code)
}

func TestRouter_SalesExport(t *testing.T) {
	api := newTestAPI(t, nil)
	adminToken := api.login("boss@shop.test", "secret1", appctx.RoleAdmin)

	w := api.do(http.MethodGet, "/api/v1/reports/sales.xlsx?from=2026-01-01&to=2026-01-31", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reports.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.NotEmpty(t, w.Body.Bytes())

	w = api.do(http.MethodGet, "/api/v1/reports/sales.xlsx?from=01/01/2026", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	api := newTestAPI(t, func(cfg *RouterConfig) { cfg.AuthRateLimit = 2 })
	creds := map[string]string{"email": "nobody@shop.test", "password": "x"}

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodPost, "/api/v1/auth/login", "", creds).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	api := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	req.Header.Set("Origin", "https://till.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	assert.Equal(t, "https://till.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	api.do(http.MethodGet, "/health/live", "", nil)

	w := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shopledger_http_requests_total")
}

type fakeHistory struct {
	entity string
	limit  int
}

func (f *fakeHistory) GetEntityHistory(_ context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error) {
	f.entity = entityType
	f.limit = limit
	return []postgres.AuditEntry{{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     audit.ActionCreate,
		Changes:    json.RawMessage(`{"total":"100"}`),
	}}, nil
}

func TestRouter_History(t *testing.T) {
	history := &fakeHistory{}
	api := newTestAPI(t, func(cfg *RouterConfig) { cfg.History = history })
	admin := api.login("owner@shop.test", "secret1", appctx.RoleAdmin)
	clerk := api.login("clerk@shop.test", "secret1", appctx.RoleUser)
	path := "/api/v1/history/sale/" + id.New().String()

	w := api.do(http.MethodGet, path, clerk, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, path+"?limit=1000", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sale", history.entity)
	assert.Equal(t, 200, history.limit)
	assert.Contains(t, w.Body.String(), `"action":"create"`)

	w = api.do(http.MethodGet, "/api/v1/history/user/"+id.New().String(), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}
