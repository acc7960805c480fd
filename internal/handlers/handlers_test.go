package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/01moynul/taptosell-settlement/internal/analytics"
	"github.com/01moynul/taptosell-settlement/internal/auth"
	"github.com/01moynul/taptosell-settlement/internal/commission"
	"github.com/01moynul/taptosell-settlement/internal/export"
	"github.com/01moynul/taptosell-settlement/internal/fees"
	"github.com/01moynul/taptosell-settlement/internal/handlers"
	"github.com/01moynul/taptosell-settlement/internal/invoicing"
	"github.com/01moynul/taptosell-settlement/internal/lock"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/orders"
	"github.com/01moynul/taptosell-settlement/internal/repository/memory"
	"github.com/01moynul/taptosell-settlement/internal/routes"
)

var (
	secret   = []byte("handlers-secret")
	skopje   = time.FixedZone("CET", 3600)
	mondayAM = time.Date(2026, 3, 9, 8, 0, 0, 0, skopje)
)

type api struct {
	router *gin.Engine
	store  *memory.Store
	seller models.Seller
	tokens map[string]string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &api{
		store:  memory.New(),
		seller: models.Seller{ID: uuid.New(), Email: "seller@example.mk", FullName: "Ana Petrova"},
		tokens: map[string]string{},
	}
	a.store.AddSeller(a.seller)
	repos := a.store.Repositories()

	dispatcher := notify.NewDispatcher(nil, nil, nil, time.Second, nil)
	t.Cleanup(dispatcher.Wait)
	ledger := commission.NewLedger(repos.Commission, nil)
	resolver := fees.NewResolver(repos.SellerSettings, repos.PlatformSettings, decimal.NewFromInt(10), nil)
	manager := invoicing.NewManager(repos, dispatcher, skopje, nil)
	manager.SetClock(func() time.Time { return mondayAM })
	engine := invoicing.NewEngine(repos, ledger, resolver, lock.NewLocalLocker(), dispatcher, invoicing.Options{Location: skopje}, nil)

	h := &handlers.Handlers{
		Orders:    orders.NewService(repos, ledger, dispatcher, manager, nil),
		Engine:    engine,
		Invoices:  manager,
		Fees:      resolver,
		Analytics: analytics.NewService(repos),
		Repos:     repos,
		Location:  skopje,
		Now:       func() time.Time { return mondayAM },
	}
	a.router = routes.SetupRouter(h, routes.Options{JWTSecret: secret, AllowedOrigin: "http://localhost:5173"})

	for role, id := range map[string]uuid.UUID{
		auth.RoleSeller:   a.seller.ID,
		auth.RoleCustomer: uuid.New(),
		auth.RoleAdmin:    uuid.New(),
	} {
		token, err := auth.GenerateToken(secret, id, role, time.Hour)
		require.NoError(t, err)
		a.tokens[role] = token
	}
	return a
}

func (a *api) do(t *testing.T, role, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[role])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// putOrder stores an order of the api seller.
func (a *api) putOrder(status models.OrderStatus, total string, updated time.Time) models.Order {
	mkd := "MKD"
	o := models.Order{
		ID:                 uuid.New(),
		OrderNumber:        "ORD-" + uuid.NewString()[:8],
		SellerID:           a.seller.ID,
		CustomerID:         uuid.New(),
		TotalAmount:        decimal.RequireFromString(total),
		TotalAmountBase:    decimal.NewNullDecimal(decimal.RequireFromString(total)),
		BuyerCurrency:      "MKD",
		SellerBaseCurrency: &mkd,
		ExchangeRate:       decimal.NewFromInt(1),
		Status:             status,
		CreatedAt:          updated.Add(-24 * time.Hour),
		UpdatedAt:          updated,
	}
	a.store.PutOrder(o)
	return o
}

func TestPing(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, "", http.MethodGet, "/v1/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoleGroups(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, "", http.MethodGet, "/v1/seller/invoices", nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, auth.RoleCustomer, http.MethodGet, "/v1/seller/invoices", nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, auth.RoleSeller, http.MethodGet, "/v1/admin/invoices", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, auth.RoleAdmin, http.MethodGet, "/v1/admin/invoices", nil).Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	a := newAPI(t)
	order := a.putOrder(models.OrderStatusPending, "500", mondayAM.Add(-time.Hour))
	path := "/v1/seller/orders/" + order.ID.String() + "/status"

	w := a.do(t, auth.RoleSeller, http.MethodPatch, path, gin.H{"status": "delivered"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.ElementsMatch(t, []interface{}{"processing", "cancelled"}, body["validTransitions"])

	w = a.do(t, auth.RoleSeller, http.MethodPatch, path, gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processing", decode(t, w)["status"])

	w = a.do(t, auth.RoleSeller, http.MethodPatch, "/v1/seller/orders/not-a-uuid/status", gin.H{"status": "processing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, auth.RoleSeller, http.MethodPatch, "/v1/seller/orders/"+uuid.NewString()+"/status", gin.H{"status": "processing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelRequiresExplanation(t *testing.T) {
	a := newAPI(t)
	order := a.putOrder(models.OrderStatusPending, "500", mondayAM.Add(-time.Hour))
	path := "/v1/seller/orders/" + order.ID.String() + "/cancel"

	assert.Equal(t, http.StatusBadRequest, a.do(t, auth.RoleSeller, http.MethodPost, path, gin.H{}).Code)

	w := a.do(t, auth.RoleSeller, http.MethodPost, path, gin.H{"explanation": "out of stock"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "cancelled", body["status"])
	assert.Equal(t, "out of stock", body["statusExplanation"])
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, auth.RoleCustomer, http.MethodPost, "/v1/customer/orders", gin.H{"sellerId": a.seller.ID, "items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, auth.RoleCustomer, http.MethodPost, "/v1/customer/orders", gin.H{
		"sellerId":     a.seller.ID,
		"items":        []gin.H{{"productId": uuid.New(), "quantity": 1}},
		"exchangeRate": "-2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceFlow(t *testing.T) {
	a := newAPI(t)
	a.putOrder(models.OrderStatusDelivered, "1000", time.Date(2026, 3, 4, 12, 0, 0, 0, skopje))

	// admin generates, seller reads and pays
	w := a.do(t, auth.RoleAdmin, http.MethodPost, "/v1/admin/sellers/"+a.seller.ID.String()+"/invoices/generate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	invoiceID := created["id"].(string)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "INV-2026-10-"+a.seller.ID.String()[:8], created["invoiceNumber"])

	w = a.do(t, auth.RoleAdmin, http.MethodPost, "/v1/admin/sellers/"+a.seller.ID.String()+"/invoices/generate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "nothing left to invoice")

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/invoices?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["invoices"], 1)

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/invoices?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = a.do(t, auth.RoleSeller, http.MethodPost, "/v1/seller/invoices/"+invoiceID+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode(t, w)
	assert.Equal(t, "paid", paid["status"])
	assert.NotContains(t, paid, "paymentNotes")

	w = a.do(t, auth.RoleAdmin, http.MethodPost, "/v1/admin/invoices/"+invoiceID+"/pay", gin.H{"paymentNotes": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayMyInvoiceOfAnotherSeller(t *testing.T) {
	a := newAPI(t)
	other := models.Seller{ID: uuid.New(), Email: "other@example.mk", FullName: "Other"}
	a.store.AddSeller(other)
	inv := models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2026-10-" + other.ID.String()[:8],
		SellerID:      other.ID,
		Status:        models.InvoiceStatusPending,
		DueDate:       mondayAM.Add(96 * time.Hour),
	}
	a.store.PutInvoice(inv)

	w := a.do(t, auth.RoleSeller, http.MethodPost, "/v1/seller/invoices/"+inv.ID.String()+"/pay", gin.H{"paymentNotes": "wire"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, auth.RoleAdmin, http.MethodPost, "/v1/admin/invoices/"+inv.ID.String()+"/pay", gin.H{"paymentNotes": "  wire 42  "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "wire 42", decode(t, w)["paymentNotes"])
}

func TestExportInvoice(t *testing.T) {
	a := newAPI(t)
	a.putOrder(models.OrderStatusDelivered, "1000", time.Date(2026, 3, 4, 12, 0, 0, 0, skopje))
	w := a.do(t, auth.RoleAdmin, http.MethodPost, "/v1/admin/invoices/run-weekly", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)["created"].([]interface{})
	require.Len(t, created, 1)
	invoiceID := created[0].(map[string]interface{})["id"].(string)

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/invoices/"+invoiceID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ana-petrova.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Orders")
}

func TestSellerFeeAndRestriction(t *testing.T) {
	a := newAPI(t)
	base := "/v1/admin/sellers/" + a.seller.ID.String()

	w := a.do(t, auth.RoleAdmin, http.MethodPut, base+"/fee", gin.H{"platformFeePercent": "7.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "7.5", decode(t, w)["effectivePlatformFeePercent"])

	w = a.do(t, auth.RoleAdmin, http.MethodPut, base+"/fee", gin.H{"platformFeePercent": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", decode(t, w)["effectivePlatformFeePercent"])

	w = a.do(t, auth.RoleAdmin, http.MethodPut, base+"/fee", gin.H{"platformFeePercent": "140"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, auth.RoleAdmin, http.MethodPut, "/v1/admin/sellers/"+uuid.NewString()+"/fee", gin.H{"platformFeePercent": "5"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, auth.RoleAdmin, http.MethodPut, "/v1/admin/settings/fee", gin.H{}).Code)
	assert.Equal(t, http.StatusOK, a.do(t, auth.RoleAdmin, http.MethodPut, "/v1/admin/settings/fee", gin.H{"platformFeePercent": 12}).Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, auth.RoleAdmin, http.MethodPut, base+"/restriction", gin.H{}).Code)
	w = a.do(t, auth.RoleAdmin, http.MethodPut, base+"/restriction", gin.H{"restricted": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/can-create-orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["canCreateOrders"])

	w = a.do(t, auth.RoleSeller, http.MethodGet, "/v1/seller/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["paymentRestricted"])
}

func TestNotifications(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, auth.RoleCustomer, http.MethodGet, "/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "notifications")
}
