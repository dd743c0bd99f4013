package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testUpgrader = websocket.Upgrader{}

// startTimerServer поднимает сервер, который запускает сессию с ручным тикером
func startTimerServer(t *testing.T, limitMinutes int, unlimited bool, tick time.Duration, ticks chan time.Time) (string, <-chan error) {
	t.Helper()
	runDone := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			runDone <- err
			return
		}
		s := NewTimerSession(conn, limitMinutes, unlimited, tick, nil)
		s.newTicker = func(time.Duration) (<-chan time.Time, func()) {
			return ticks, func() {}
		}
		runDone <- s.Run(context.Background())
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), runDone
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitRun(t *testing.T, runDone <-chan error) error {
	t.Helper()
	select {
	case err := <-runDone:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("сессия таймера не завершилась")
		return nil
	}
}

func TestTimerSession_Unlimited(t *testing.T) {
	// Arrange
	url, runDone := startTimerServer(t, 999, true, time.Second, nil)
	conn := dial(t, url)
	defer conn.Close()

	// Act
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	_, _, readErr := conn.ReadMessage()

	// Assert
	assert.Equal(t, map[string]interface{}{"type": "unlimited", "limit_min": float64(999)}, msg)
	assert.True(t, websocket.IsCloseError(readErr, websocket.CloseNormalClosure), "Соединение закрывается нормально")
	assert.NoError(t, waitRun(t, runDone))
}

func TestTimerSession_CountdownThenExpired(t *testing.T) {
	// Arrange
	ticks := make(chan time.Time, 3)
	for i := 0; i < 3; i++ {
		ticks <- time.Time{}
	}
	url, runDone := startTimerServer(t, 1, false, 20*time.Second, ticks)
	conn := dial(t, url)
	defer conn.Close()

	// Act
	var got []TimerMessage
	for i := 0; i < 4; i++ {
		var msg TimerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		got = append(got, msg)
	}
	_, _, readErr := conn.ReadMessage()

	// Assert
	require.Len(t, got, 4)
	for i, want := range []int{60, 40, 20} {
		assert.Equal(t, MessageTick, got[i].Type)
		require.NotNil(t, got[i].RemainingSec)
		assert.Equal(t, want, *got[i].RemainingSec)
	}
	assert.Equal(t, MessageExpired, got[3].Type)
	assert.Nil(t, got[3].RemainingSec)
	assert.True(t, websocket.IsCloseError(readErr, websocket.CloseNormalClosure))
	assert.NoError(t, waitRun(t, runDone))
}

func TestTimerSession_StopsWhenClientCloses(t *testing.T) {
	// Arrange: тикер никогда не срабатывает
	url, runDone := startTimerServer(t, 45, false, time.Second, make(chan time.Time))
	conn := dial(t, url)

	var first TimerMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.NotNil(t, first.RemainingSec)
	assert.Equal(t, 45*60, *first.RemainingSec)

	// Act
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	// Assert
	assert.NoError(t, waitRun(t, runDone), "Сессия завершается после закрытия клиентом")
}

func TestSeconds_RoundsUp(t *testing.T) {
	assert.Equal(t, 1, seconds(500*time.Millisecond))
	assert.Equal(t, 2, seconds(2*time.Second))
	assert.Equal(t, 0, seconds(0))
}
