package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/okapi-vault/okapi_vault/internal/config"
	"github.com/okapi-vault/okapi_vault/internal/logging"
)

const testRate = uint64(10_000_000_000) // 1% per second at 1e12 precision

func newTestApp(t *testing.T, now *int64, operatorHash string) *fiber.App {
	t.Helper()

	app := fiber.New()
	cfg := config.Config{
		AppName:           "test",
		AppEnv:            "development",
		InitialRate:       testRate,
		OperatorTokenHash: operatorHash,
		WithdrawPerMin:    100,
	}
	deps := Deps{
		Cfg:    cfg,
		Logger: logging.Discard(),
		Clock:  func() time.Time { return time.Unix(*now, 0) },
	}
	if err := Setup(app, deps); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	// Error responses come back as plain text from fiber's default handler.
	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) != nil {
		decoded = nil
	}
	return resp, decoded
}

func TestDepositAccruesAndTransfers(t *testing.T) {
	now := int64(0)
	app := newTestApp(t, &now, "")

	alice := "0x" + fmt.Sprintf("%040x", 1)
	bob := "0x" + fmt.Sprintf("%040x", 2)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/vault/deposits",
		map[string]any{"account": alice, "amount": 1000}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("deposit status = %d, want 201", resp.StatusCode)
	}

	// 1% per second for 50 seconds: 1000 -> 1500.
	now = 50
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/accounts/"+alice+"/balance", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance status = %d, want 200", resp.StatusCode)
	}
	if got := uint64(body["balance"].(float64)); got != 1500 {
		t.Fatalf("balance after 50s = %d, want 1500", got)
	}

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/transfers",
		map[string]any{"from": alice, "to": bob, "amount": 600}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("transfer status = %d, want 201", resp.StatusCode)
	}
	if got := uint64(body["from_balance"].(float64)); got != 900 {
		t.Fatalf("sender balance after transfer = %d, want 900", got)
	}
	if got := uint64(body["to_balance"].(float64)); got != 600 {
		t.Fatalf("recipient balance after transfer = %d, want 600", got)
	}
}

func TestWithdrawEntireBalance(t *testing.T) {
	now := int64(0)
	app := newTestApp(t, &now, "")

	alice := "0x" + fmt.Sprintf("%040x", 3)

	doJSON(t, app, http.MethodPost, "/api/v1/vault/deposits",
		map[string]any{"account": alice, "amount": 100}, nil)

	now = 100 // 1%/s over 100s doubles the balance
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/vault/withdrawals",
		map[string]any{"account": alice, "entire_balance": true}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("withdrawal status = %d, want 201", resp.StatusCode)
	}
	if got := uint64(body["amount"].(float64)); got != 200 {
		t.Fatalf("withdrawn amount = %d, want 200", got)
	}
	if got := uint64(body["balance"].(float64)); got != 0 {
		t.Fatalf("balance after full withdrawal = %d, want 0", got)
	}
}

func TestRateEndpointGuardsAndRefuses(t *testing.T) {
	now := int64(0)
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	app := newTestApp(t, &now, string(hash))

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/rate", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get rate status = %d, want 200", resp.StatusCode)
	}
	if got := uint64(body["rate_per_second"].(float64)); got != testRate {
		t.Fatalf("rate = %d, want %d", got, testRate)
	}

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/rate",
		map[string]any{"rate_per_second": testRate / 2}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated rate change status = %d, want 401", resp.StatusCode)
	}

	auth := map[string]string{fiber.HeaderAuthorization: "Bearer operator-secret"}
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/rate",
		map[string]any{"rate_per_second": testRate / 2}, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rate decrease status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/rate",
		map[string]any{"rate_per_second": testRate}, auth)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("rate increase status = %d, want 409", resp.StatusCode)
	}
}

func TestAllowanceFlow(t *testing.T) {
	now := int64(0)
	app := newTestApp(t, &now, "")

	owner := "0x" + fmt.Sprintf("%040x", 4)
	spender := "0x" + fmt.Sprintf("%040x", 5)
	dest := "0x" + fmt.Sprintf("%040x", 6)

	doJSON(t, app, http.MethodPost, "/api/v1/vault/deposits",
		map[string]any{"account": owner, "amount": 500}, nil)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/allowances",
		map[string]any{"owner": owner, "spender": spender, "amount": 300}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("approve status = %d, want 201", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/transfers",
		map[string]any{"from": owner, "to": dest, "spender": spender, "amount": 200}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("transferFrom status = %d, want 201", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/allowances/"+owner+"/"+spender, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("allowance status = %d, want 200", resp.StatusCode)
	}
	if got := uint64(body["amount"].(float64)); got != 100 {
		t.Fatalf("remaining allowance = %d, want 100", got)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/transfers",
		map[string]any{"from": owner, "to": dest, "spender": spender, "amount": 200}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("over-allowance transferFrom status = %d, want 422", resp.StatusCode)
	}
}
