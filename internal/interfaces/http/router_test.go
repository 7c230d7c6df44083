package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/vittoswine/vittos-api/internal/application/analytics"
	"github.com/vittoswine/vittos-api/internal/application/auth"
	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/application/usecase"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/infrastructure/dispatch"
	"github.com/vittoswine/vittos-api/internal/infrastructure/memory"
	"github.com/vittoswine/vittos-api/internal/infrastructure/pdf"
	apphttp "github.com/vittoswine/vittos-api/internal/interfaces/http"
)

const (
	anaID   = "00000000-0000-0000-0000-0000000000a1"
	betoID  = "00000000-0000-0000-0000-0000000000b2"
	adminID = "00000000-0000-0000-0000-0000000000ad"
	wineID  = "00000000-0000-0000-0000-00000000c001"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("sin conexión") }

func newAPI(t *testing.T, checks map[string]apphttp.Pinger) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	now := time.Now().UTC()
	for _, u := range []*entity.User{
		{ID: anaID, Name: "Ana", Email: "ana@vittos.cl", Role: entity.RoleCustomer, CreatedAt: now},
		{ID: betoID, Name: "Beto", Email: "beto@vittos.cl", Role: entity.RoleCustomer, CreatedAt: now},
		{ID: adminID, Name: "Admin", Email: "admin@vittos.cl", Role: entity.RoleAdmin, CreatedAt: now},
	} {
		require.NoError(t, store.Users().Create(ctx, u))
	}
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: wineID, Name: "Carmenere Reserva", Price: decimal.RequireFromString("10.00"),
		Stock: 12, Category: "Viña Test", CreatedAt: now,
	}))

	svc := orders.NewService(store, store.Orders(), nil, nil, decimal.RequireFromString("3.00"))
	checkout := orders.NewCheckoutUseCase(svc, store.Products(), memory.NewIdempotencyStore(time.Hour), nil, orders.PricingCatalog)
	docs := orders.NewDocumentsUseCase(svc, pdf.NewReceiptGenerator(), dispatch.NewGuideBuilder(),
		orders.ShopInfo{Name: "Vitto's Wine", Currency: "CLP"})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}),
		ProductUC:   usecase.NewProductUseCase(store.Products()),
		UserUC:      usecase.NewUserUseCase(store.Users()),
		Orders:      svc,
		Checkout:    checkout,
		Documents:   docs,
		DashboardUC: appanalytics.NewDashboardUseCase(store.Analytics()),
		ServiceName: "vittos-api-test",
		Checks:      checks,
		JWTSecret:   testJWTSecret,
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

func (f *apiFixture) placeOrder(t *testing.T, userID string) string {
	t.Helper()
	resp, raw := f.do(t, http.MethodPost, "/api/orders", tokenForRole(t, userID, entity.RoleCustomer),
		`{"items":[{"product_id":"`+wineID+`","quantity":2}],"total":"23.00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.OrderID
}

func TestHealth(t *testing.T) {
	f := newAPI(t, nil)
	resp, raw := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "vittos-api-test")

	resp, _ = f.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyz_DependenciaCaida(t *testing.T) {
	f := newAPI(t, map[string]apphttp.Pinger{"redis": failingPinger{}})
	resp, raw := f.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(raw), `"redis":"down"`)
}

func TestCheckout_Registra(t *testing.T) {
	f := newAPI(t, nil)
	resp, raw := f.do(t, http.MethodPost, "/api/orders", tokenForRole(t, anaID, entity.RoleCustomer),
		`{"items":[{"product_id":"`+wineID+`","quantity":2,"unit_price":"10.00"}],"total":"23.00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var out dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.OrderID)
	assert.Equal(t, orders.MsgOrderRegistered, out.Message)
	assert.True(t, out.Total.Equal(decimal.RequireFromString("23")))
}

func TestCheckout_CuerpoCamelCase(t *testing.T) {
	f := newAPI(t, nil)
	resp, raw := f.do(t, http.MethodPost, "/api/orders", tokenForRole(t, anaID, entity.RoleCustomer),
		`{"lineItems":[{"productId":"`+wineID+`","quantity":1,"unitPrice":10}],"total":13}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

func TestCheckout_Errores(t *testing.T) {
	f := newAPI(t, nil)
	token := tokenForRole(t, anaID, entity.RoleCustomer)

	resp, _ := f.do(t, http.MethodPost, "/api/orders", "", `{"items":[]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := f.do(t, http.MethodPost, "/api/orders", token, `{"items":[],"total":"3.00"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "VALIDATION")

	resp, _ = f.do(t, http.MethodPost, "/api/orders", token, `{"items":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":2}],"total":"99.00"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "total")

	long := string(bytes.Repeat([]byte("k"), 201))
	resp, _ = f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":1}],"total":"13.00"}`, apphttp.HeaderIdempotencyKey, long)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckout_Idempotente(t *testing.T) {
	f := newAPI(t, nil)
	token := tokenForRole(t, anaID, entity.RoleCustomer)
	body := `{"items":[{"product_id":"` + wineID + `","quantity":1}],"total":"13.00"}`

	resp, raw := f.do(t, http.MethodPost, "/api/orders", token, body, apphttp.HeaderIdempotencyKey, "carro-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var first dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(raw, &first))

	resp, raw = f.do(t, http.MethodPost, "/api/orders", token, body, apphttp.HeaderIdempotencyKey, "carro-1")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var second dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Idempotent)
}

func TestCheckout_ClaveReutilizadaConOtroCarrito(t *testing.T) {
	f := newAPI(t, nil)
	token := tokenForRole(t, anaID, entity.RoleCustomer)

	resp, raw := f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":1}],"total":"13.00"}`, apphttp.HeaderIdempotencyKey, "carro-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":2}],"total":"23.00"}`, apphttp.HeaderIdempotencyKey, "carro-1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &er))
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", er.Code)

	// un checkout rechazado libera la clave
	resp, _ = f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":1}],"total":"99.00"}`, apphttp.HeaderIdempotencyKey, "carro-2")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, raw = f.do(t, http.MethodPost, "/api/orders", token,
		`{"items":[{"product_id":"`+wineID+`","quantity":1}],"total":"13.00"}`, apphttp.HeaderIdempotencyKey, "carro-2")
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

func TestOrders_MineAisladoPorUsuario(t *testing.T) {
	f := newAPI(t, nil)
	anaOrder := f.placeOrder(t, anaID)
	f.placeOrder(t, betoID)

	resp, raw := f.do(t, http.MethodGet, "/api/orders/mine", tokenForRole(t, anaID, entity.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.OrderResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, anaOrder, list[0].ID)
	assert.Nil(t, list[0].Customer)

	// listado completo sólo admin
	resp, _ = f.do(t, http.MethodGet, "/api/orders", tokenForRole(t, anaID, entity.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = f.do(t, http.MethodGet, "/api/orders", tokenForRole(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)
	require.NotNil(t, list[0].Customer)
}

func TestOrders_DetalleAjeno(t *testing.T) {
	f := newAPI(t, nil)
	id := f.placeOrder(t, anaID)

	resp, _ := f.do(t, http.MethodGet, "/api/orders/"+id, tokenForRole(t, betoID, entity.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/orders/"+id, tokenForRole(t, anaID, entity.RoleCustomer), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrders_UpdateStatus(t *testing.T) {
	f := newAPI(t, nil)
	id := f.placeOrder(t, anaID)
	admin := tokenForRole(t, adminID, entity.RoleAdmin)
	path := "/api/orders/" + id + "/status"

	resp, _ := f.do(t, http.MethodPut, path, tokenForRole(t, anaID, entity.RoleCustomer), `{"status":"processing"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.do(t, http.MethodPut, path, admin, `{"status":"procesando"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.OrderResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "processing", out.Status)
	assert.Equal(t, "procesando", out.StatusLabel)

	resp, raw = f.do(t, http.MethodPut, path, admin, `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_TRANSITION")

	resp, raw = f.do(t, http.MethodPut, path, admin, `{"status":"perdido"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "UNKNOWN_STATUS")

	resp, _ = f.do(t, http.MethodPut, path, admin, `{"status":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/api/orders/00000000-0000-0000-0000-000000000999/status", admin, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_Documentos(t *testing.T) {
	f := newAPI(t, nil)
	id := f.placeOrder(t, anaID)
	admin := tokenForRole(t, adminID, entity.RoleAdmin)

	resp, raw := f.do(t, http.MethodGet, "/api/orders/"+id+"/receipt", tokenForRole(t, anaID, entity.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pedido-")
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	// guía sólo para pedidos en preparación o posteriores
	resp, _ = f.do(t, http.MethodGet, "/api/orders/"+id+"/dispatch-guide", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/api/orders/"+id+"/status", admin, `{"status":"processing"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = f.do(t, http.MethodGet, "/api/orders/"+id+"/dispatch-guide", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "GuiaDespacho")
}

func TestAuth_RegistroYLogin(t *testing.T) {
	f := newAPI(t, nil)
	resp, raw := f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"name":"Carla","email":"carla@vittos.cl","password":"secreto123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, _ = f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"name":"Carla","email":"CARLA@vittos.cl","password":"secreto123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = f.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"carla@vittos.cl","password":"secreto123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &login))
	assert.NotEmpty(t, login.Token)

	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"carla@vittos.cl","password":"otra-clave"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_LecturaPublicaEscrituraAdmin(t *testing.T) {
	f := newAPI(t, nil)
	resp, _ := f.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/products/"+wineID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"name":"Syrah","description":"Tinto","price":"12.50","stock":3,"category":"Viña Test","image_url":"https://cdn.vittos.cl/syrah.png"}`
	resp, _ = f.do(t, http.MethodPost, "/api/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/products", tokenForRole(t, anaID, entity.RoleCustomer), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.do(t, http.MethodPost, "/api/products", tokenForRole(t, adminID, entity.RoleAdmin), body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

func TestUsers_MeYDashboard(t *testing.T) {
	f := newAPI(t, nil)
	resp, raw := f.do(t, http.MethodGet, "/api/users/me", tokenForRole(t, anaID, entity.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "ana@vittos.cl")

	resp, _ = f.do(t, http.MethodGet, "/api/dashboard/summary", tokenForRole(t, anaID, entity.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/dashboard/summary", tokenForRole(t, adminID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
