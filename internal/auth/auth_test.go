package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticAPIKeyValidator(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("key-a, key-b")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	if !validator.Validate(context.Background(), "key-a") {
		t.Fatal("key-a should validate")
	}
	if !validator.Validate(context.Background(), "key-b") {
		t.Fatal("key-b should validate")
	}
	if validator.Validate(context.Background(), "key-c") {
		t.Fatal("key-c should not validate")
	}
}

func TestStaticAPIKeyValidatorEmptySpecRejectsAll(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	if validator.Validate(context.Background(), "anything") {
		t.Fatal("empty spec should reject all keys")
	}
}

func TestStaticAPIKeyValidatorRejectsEmptyEntry(t *testing.T) {
	if _, err := NewStaticAPIKeyValidator("key-a,,key-b"); err == nil {
		t.Fatal("expected error for empty entry")
	}
}

func TestMiddleware(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("secret")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	h := Middleware(nil, validator)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodPost, "/ask", nil))
	if missing.Code != http.StatusUnauthorized {
		t.Fatalf("missing key status = %d", missing.Code)
	}

	wrong := httptest.NewRequest(http.MethodPost, "/ask", nil)
	wrong.Header.Set("X-API-Key", "nope")
	wrongResp := httptest.NewRecorder()
	h.ServeHTTP(wrongResp, wrong)
	if wrongResp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key status = %d", wrongResp.Code)
	}

	viaHeader := httptest.NewRequest(http.MethodPost, "/ask", nil)
	viaHeader.Header.Set("X-API-Key", "secret")
	headerResp := httptest.NewRecorder()
	h.ServeHTTP(headerResp, viaHeader)
	if headerResp.Code != http.StatusOK {
		t.Fatalf("header key status = %d", headerResp.Code)
	}

	viaBearer := httptest.NewRequest(http.MethodPost, "/ask", nil)
	viaBearer.Header.Set("Authorization", "Bearer secret")
	bearerResp := httptest.NewRecorder()
	h.ServeHTTP(bearerResp, viaBearer)
	if bearerResp.Code != http.StatusOK {
		t.Fatalf("bearer key status = %d", bearerResp.Code)
	}
}
