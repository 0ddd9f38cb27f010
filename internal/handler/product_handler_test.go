package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/brightmart/inventory/internal/config"
	"github.com/brightmart/inventory/internal/middleware"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/service"
	"github.com/brightmart/inventory/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	services *service.Services
	router   *gin.Engine
	token    string
}

// setupEnv wires the full stack against an isolated schema and
// returns a bearer token for a seeded user.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.ExpireMinutes = 30
	services := service.NewServices(db, repos, cfg, nil, zap.NewNop())
	handlers := NewHandlers(services, zap.NewNop())

	user, err := services.Auth.Signup(context.Background(), "tester@example.com", "password123")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, _, err := services.Auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router := testutil.SetupRouter()
	api := router.Group("/api")
	api.Use(middleware.JWTAuth(services.Auth))
	{
		products := api.Group("/products")
		{
			products.GET("", handlers.Product.List)
			products.POST("", handlers.Product.Create)
			products.GET("/sku/:sku", handlers.Product.GetBySKU)
			products.GET("/:id", handlers.Product.Get)
			products.PATCH("/:id/stock", handlers.Product.AdjustStock)
		}
		inventory := api.Group("/inventory")
		{
			inventory.GET("/transactions", handlers.Inventory.ListTransactions)
			inventory.POST("/adjust", handlers.Inventory.Adjust)
		}
		pos := api.Group("/purchase-orders")
		{
			pos.POST("", handlers.Purchase.Create)
			pos.GET("/:id", handlers.Purchase.Get)
			pos.POST("/:id/approve", handlers.Purchase.Approve)
			pos.POST("/:id/receive", handlers.Purchase.Receive)
		}
	}

	return &testEnv{db: db, services: services, router: router, token: token}
}

func TestProductCreateAndFetch(t *testing.T) {
	env := setupEnv(t)

	w := testutil.DoRequest(env.router, "POST", "/api/products", map[string]interface{}{
		"name":              "Olive Oil 500ml",
		"sku":               "OIL-500",
		"category":          "Pantry",
		"cost_price":        3.20,
		"selling_price":     5.99,
		"quantity_in_stock": 24,
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := testutil.ParseResponse(w)
	data := created["data"].(map[string]interface{})
	id := data["id"].(string)

	w = testutil.DoRequest(env.router, "GET", "/api/products/"+id, nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/products/sku/OIL-500", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("get by sku status = %d", w.Code)
	}
}

func TestProductNotFoundMapsTo404(t *testing.T) {
	env := setupEnv(t)

	w := testutil.DoRequest(env.router, "GET", "/api/products/no-such-id", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Errorf("code = %v, want 40400", resp["code"])
	}
}

func TestProductDuplicateSKUMapsTo409(t *testing.T) {
	env := setupEnv(t)

	body := map[string]interface{}{"name": "A", "sku": "DUP-1", "category": "Misc"}
	if w := testutil.DoRequest(env.router, "POST", "/api/products", body, env.token); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w := testutil.DoRequest(env.router, "POST", "/api/products", body, env.token)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate create = %d, want 409", w.Code)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	env := setupEnv(t)

	w := testutil.DoRequest(env.router, "GET", "/api/products", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestInventoryAdjustEndpoint(t *testing.T) {
	env := setupEnv(t)
	testutil.SeedProduct(t, env.db, "prod-1", "ADJ-H-001", 40, 10)

	w := testutil.DoRequest(env.router, "POST", "/api/inventory/adjust", map[string]interface{}{
		"product_id":   "prod-1",
		"new_quantity": 32,
		"reason":       "cycle count",
	}, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("adjust status = %d, body %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["quantity_in_stock"].(float64) != 32 {
		t.Errorf("stock = %v, want 32", data["quantity_in_stock"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/inventory/transactions?product_id=prod-1", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("transactions status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	list := resp["data"].(map[string]interface{})
	if list["total_count"].(float64) != 1 {
		t.Errorf("total_count = %v, want 1", list["total_count"])
	}
}
