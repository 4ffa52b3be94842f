package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*appidentity.Principal, error) {
	if token != "good" {
		return nil, errors.New("invalid")
	}
	return &appidentity.Principal{AdminID: uuid.New()}, nil
}

func newFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	engine := gin.New()
	engine.GET("/ws", NewHandler(hub, stubAuth{}, nil).Connect)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func testOrder(t *testing.T) *order.Order {
	t.Helper()
	price, err := valueobject.NewMoney(decimal.RequireFromString("40.00"), valueobject.USD)
	require.NoError(t, err)
	item, err := order.NewOrderItem(uuid.New(), "Linen Shirt", "linen-shirt", "", price, 2)
	require.NoError(t, err)
	o, err := order.NewOrder(order.PlaceOrderParams{
		OrderNumber:     "ORD-20260309-ABC123",
		Email:           "ada@example.com",
		ShippingAddress: testutil.TestAddress("GB"),
		Items:           []order.OrderItem{item},
		Currency:        valueobject.USD,
		ExchangeRate:    decimal.NewFromInt(1),
		ShippingFee:     valueobject.Zero(valueobject.USD),
		PaymentMethod:   order.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	require.NoError(t, o.ConfirmCashOnDelivery())
	return o
}

func TestHandler_RejectsMissingOrInvalidToken(t *testing.T) {
	srv := newFeedServer(t, NewHub(nil))

	for _, token := range []string{"", "bad"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestHub_BroadcastsOrderEvents(t *testing.T) {
	hub := NewHub(nil)
	srv := newFeedServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	testutil.AssertEventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	o := testOrder(t)
	require.NoError(t, hub.Handle(context.Background(), order.NewOrderPlacedEvent(o)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got OrderActivity
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, order.EventTypeOrderPlaced, got.Type)
	assert.Equal(t, "ORD-20260309-ABC123", got.OrderNumber)
	assert.Equal(t, "PROCESSING", got.Status)
	assert.Equal(t, "80.00", got.Total)
	assert.Equal(t, "USD", got.Currency)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	srv := newFeedServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	testutil.AssertEventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	testutil.AssertEventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{hub: hub, adminID: "slow", send: make(chan []byte, 1)}
	hub.register(c)

	hub.Broadcast(OrderActivity{Type: "first"})
	hub.Broadcast(OrderActivity{Type: "second"})

	assert.Zero(t, hub.ConnectionCount())
	_, open := <-c.send
	assert.True(t, open)
	_, open = <-c.send
	assert.False(t, open)
}

func TestHandler_CheckOrigin(t *testing.T) {
	h := NewHandler(NewHub(nil), stubAuth{}, []string{"https://admin.shop.test"})

	req := httptest.NewRequest(http.MethodGet, "http://api.shop.test/ws", nil)
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://admin.shop.test")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "http://api.shop.test")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.test")
	assert.False(t, h.checkOrigin(req))
}
