package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/caresupport-backend/internal/sse"
)

func newSSEFixture() (*SSEHandler, *sse.SSEHub, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	hub := sse.NewSSEHub(testLogger())
	sh := NewSSEHandler(testLogger(), hub)
	router := gin.New()
	router.POST("/sse/subscribe", sh.Subscribe)
	router.POST("/sse/unsubscribe", sh.Unsubscribe)
	return sh, hub, router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSSESubscribeAddsChannel(t *testing.T) {
	sh, hub, router := newSSEFixture()

	client := hub.NewSSEClient()
	sh.clients[client.ID] = client

	body := `{"client_id":"` + client.ID.String() + `","channel":"conversation:5511912345678"}`
	w := postJSON(router, "/sse/subscribe", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	hub.Broadcast(sse.SSEMessage{
		Channel: "conversation:5511912345678",
		Event:   sse.SSEEventConversationUpdated,
	})
	select {
	case msg := <-client.Outbound:
		if msg.Channel != "conversation:5511912345678" {
			t.Fatalf("delivered channel = %q, want subscribed channel", msg.Channel)
		}
	default:
		t.Fatal("broadcast did not reach the subscribed client")
	}
}

func TestSSEUnsubscribeRemovesChannel(t *testing.T) {
	sh, hub, router := newSSEFixture()

	client := hub.NewSSEClient()
	sh.clients[client.ID] = client
	hub.AddChannel(client, sse.ChannelConversations)

	body := `{"client_id":"` + client.ID.String() + `","channel":"conversations"}`
	w := postJSON(router, "/sse/unsubscribe", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	hub.Broadcast(sse.SSEMessage{
		Channel: sse.ChannelConversations,
		Event:   sse.SSEEventConversationUpdated,
	})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected delivery after unsubscribe: %+v", msg)
	default:
	}
}

func TestSSESubscribeWithoutActiveStream(t *testing.T) {
	_, _, router := newSSEFixture()

	body := `{"client_id":"` + uuid.NewString() + `","channel":"conversations"}`
	w := postJSON(router, "/sse/subscribe", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "no_active_stream") {
		t.Fatalf("body = %s, want no_active_stream code", w.Body.String())
	}
}

func TestSSESubscribeValidation(t *testing.T) {
	_, _, router := newSSEFixture()

	cases := []struct {
		name string
		body string
	}{
		{name: "empty", body: `{}`},
		{name: "missing_client_id", body: `{"channel":"conversations"}`},
		{name: "missing_channel", body: `{"client_id":"` + uuid.NewString() + `"}`},
		{name: "bad_client_id", body: `{"client_id":"not-a-uuid","channel":"conversations"}`},
		{name: "malformed_json", body: `{"client_id":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(router, "/sse/subscribe", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}
