package handler

import (
	"net/http"
	"testing"

	"github.com/brightmart/inventory/internal/testutil"
)

func TestPurchaseOrderFlowOverHTTP(t *testing.T) {
	env := setupEnv(t)
	testutil.SeedSupplier(t, env.db, "sup-1", "Fresh Farm Co")
	testutil.SeedProduct(t, env.db, "prod-1", "PO-H-001", 10, 5)

	// 下单
	w := testutil.DoRequest(env.router, "POST", "/api/purchase-orders", map[string]interface{}{
		"supplier_id": "sup-1",
		"items": []map[string]interface{}{
			{"product_id": "prod-1", "quantity_ordered": 5, "unit_price": 2.0},
		},
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := testutil.ParseResponse(w)
	data := created["data"].(map[string]interface{})
	orderID := data["id"].(string)
	if data["status"].(string) != "DRAFT" {
		t.Errorf("status = %v, want DRAFT", data["status"])
	}
	if data["total_amount"].(float64) != 12.0 {
		t.Errorf("total = %v, want 12 (10 + 20%% VAT)", data["total_amount"])
	}
	items := data["items"].([]interface{})
	itemID := items[0].(map[string]interface{})["id"].(string)

	// 批准
	w = testutil.DoRequest(env.router, "POST", "/api/purchase-orders/"+orderID+"/approve", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", w.Code, w.Body.String())
	}

	// 重复批准应映射为 400
	w = testutil.DoRequest(env.router, "POST", "/api/purchase-orders/"+orderID+"/approve", nil, env.token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second approve status = %d, want 400", w.Code)
	}

	// 全量收货
	w = testutil.DoRequest(env.router, "POST", "/api/purchase-orders/"+orderID+"/receive", map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_id": itemID, "quantity_received": 5},
		},
	}, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("receive status = %d, body %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["status"].(string) != "DELIVERED" {
		t.Errorf("status after full receipt = %v, want DELIVERED", data["status"])
	}
}

func TestPurchaseOrderUnknownIDMapsTo404(t *testing.T) {
	env := setupEnv(t)

	w := testutil.DoRequest(env.router, "GET", "/api/purchase-orders/no-such-order", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
