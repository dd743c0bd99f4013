package websocket

// Типы сообщений таймера экзамена
const (
	// MessageTick - оставшееся время в секундах
	MessageTick = "tick"

	// MessageExpired - время экзамена вышло
	MessageExpired = "expired"

	// MessageUnlimited - экзамен без ограничения времени, таймер не запускается
	MessageUnlimited = "unlimited"
)

// TimerMessage - сообщение, отправляемое клиенту
type TimerMessage struct {
	Type         string `json:"type"`
	RemainingSec *int   `json:"remaining_sec,omitempty"`
	LimitMin     *int   `json:"limit_min,omitempty"`
}

func tickMessage(remainingSec int) TimerMessage {
	return TimerMessage{Type: MessageTick, RemainingSec: &remainingSec}
}

func unlimitedMessage(limitMin int) TimerMessage {
	return TimerMessage{Type: MessageUnlimited, LimitMin: &limitMin}
}
