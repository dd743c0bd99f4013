// Package websocket отдает клиенту обратный отсчет экзамена через WebSocket.
package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Сколько ждем ответный close frame после нашего.
	closeWait = 2 * time.Second

	// Клиент таймера ничего не присылает, кроме control frames
	maxMessageSize = 512

	// DefaultTick - период отправки оставшегося времени
	DefaultTick = time.Second
)

// TimerSession ведет обратный отсчет для одного соединения
type TimerSession struct {
	// Limit - длительность экзамена
	Limit time.Duration
	// Unlimited - экзамен без лимита: отправляется одно сообщение и соединение закрывается
	Unlimited bool
	// LimitMinutes - лимит в минутах для сообщения unlimited
	LimitMinutes int
	// Tick - период отправки оставшегося времени
	Tick time.Duration

	conn *websocket.Conn
	log  *zap.Logger

	// newTicker подменяется в тестах
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// NewTimerSession создает сессию таймера поверх установленного соединения
func NewTimerSession(conn *websocket.Conn, limitMinutes int, unlimited bool, tick time.Duration, log *zap.Logger) *TimerSession {
	if tick <= 0 {
		tick = DefaultTick
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TimerSession{
		Limit:        time.Duration(limitMinutes) * time.Minute,
		Unlimited:    unlimited,
		LimitMinutes: limitMinutes,
		Tick:         tick,
		conn:         conn,
		log:          log.Named("ExamTimer"),
		newTicker:    realTicker,
	}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Run отправляет обратный отсчет до истечения времени, закрытия клиентом или отмены ctx.
// Возвращает управление только после завершения читающей горутины.
func (s *TimerSession) Run(ctx context.Context) error {
	defer s.conn.Close()

	if s.Unlimited {
		if err := s.write(unlimitedMessage(s.LimitMinutes)); err != nil {
			return err
		}
		s.closeNormally("unlimited")
		return nil
	}

	clientGone := make(chan struct{})
	go s.readPump(clientGone)
	// Закрытие соединения разблокирует readPump
	defer func() {
		s.conn.Close()
		<-clientGone
	}()

	ticks, stop := s.newTicker(s.Tick)
	defer stop()

	remaining := s.Limit
	if err := s.write(tickMessage(seconds(remaining))); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.closeWith(websocket.CloseGoingAway, "server shutdown")
			return ctx.Err()
		case <-clientGone:
			s.log.Debug("Клиент закрыл соединение", zap.Duration("remaining", remaining))
			return nil
		case <-ticks:
			remaining -= s.Tick
			if remaining > 0 {
				if err := s.write(tickMessage(seconds(remaining))); err != nil {
					return err
				}
				continue
			}
			if err := s.write(TimerMessage{Type: MessageExpired}); err != nil {
				return err
			}
			s.closeNormally("expired")
			// Ждем ответный close от клиента, но не дольше closeWait
			select {
			case <-clientGone:
			case <-time.After(closeWait):
			}
			return nil
		}
	}
}

// readPump читает control frames, пока клиент не закроет соединение
func (s *TimerSession) readPump(done chan<- struct{}) {
	defer close(done)
	s.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				s.log.Debug("Ошибка чтения WebSocket", zap.Error(err))
			}
			return
		}
	}
}

func (s *TimerSession) write(msg TimerMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *TimerSession) closeNormally(reason string) {
	s.closeWith(websocket.CloseNormalClosure, reason)
}

func (s *TimerSession) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.log.Debug("Не удалось отправить close frame", zap.Error(err))
	}
}

// seconds округляет вверх: 500ms оставшегося времени - это еще 1 секунда
func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
