package zapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func testInstance() *types.ChannelInstance {
	return &types.ChannelInstance{
		InstanceID:  "clinic-01",
		Token:       "token-abc",
		FromAddress: "5511933334444",
	}
}

func TestSendTextSuccess(t *testing.T) {
	var gotPath string
	var gotBody sendTextRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"zaapId":"z1","messageId":"m1"}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.SendText(context.Background(), testInstance(), "5511912345678", "olá"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if gotPath != "/instances/clinic-01/token/token-abc/send-text" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody.Phone != "5511912345678" || gotBody.Message != "olá" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestSendTextGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = c.SendText(context.Background(), testInstance(), "5511912345678", "olá")
	if err == nil {
		t.Fatalf("non-2xx must be an error")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", httpErr.StatusCode)
	}
}

func TestSendTextValidation(t *testing.T) {
	c, err := New(testLogger(), Config{BaseURL: "http://localhost:0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := c.SendText(ctx, nil, "5511912345678", "olá"); err == nil {
		t.Fatalf("nil instance must fail")
	}
	if err := c.SendText(ctx, testInstance(), "", "olá"); err == nil {
		t.Fatalf("empty destination must fail")
	}
	if err := c.SendText(ctx, testInstance(), "5511912345678", ""); err == nil {
		t.Fatalf("empty text must fail")
	}
	if err := c.SendText(ctx, &types.ChannelInstance{InstanceID: "x"}, "5511912345678", "olá"); err == nil {
		t.Fatalf("incomplete credentials must fail")
	}
}
