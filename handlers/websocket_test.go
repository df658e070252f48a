package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cybercafe-demand-api/forecast"
	"cybercafe-demand-api/models"
	"cybercafe-demand-api/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelEventsWebSocketDeliversRetrainEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnvWithCache(t, services.NewCacheServiceFromClient(client))
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/demand-model?token=" + env.token(t, "user")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(services.ModelEventsChannel)[services.ModelEventsChannel] > 0
	}, 2*time.Second, 10*time.Millisecond, "websocket never subscribed")

	require.Equal(t, http.StatusOK, env.retrain(t).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)

	var event models.ModelEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "model_retrained", event.Type)
	require.NotNil(t, event.Model)
	assert.Equal(t, 72, event.Model.TrainingSampleCount)
	assert.Equal(t, forecast.CalendarSchemaVersion, event.Model.SchemaVersion)
}
