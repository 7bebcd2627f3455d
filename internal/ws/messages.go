package ws

import "time"

// Исходящее сообщение клиенту
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Входящее сообщение клиента
type clientMessage struct {
	Type    string `json:"type"`
	Stake   int64  `json:"stake,omitempty"`
	MatchID string `json:"match_id,omitempty"`
	Color   string `json:"color,omitempty"`
	TokenID int    `json:"token_id"`
}

// типы входящих сообщений
const (
	msgSearch       = "search"
	msgCancelSearch = "cancel_search"
	msgJoin         = "join"
	msgRoll         = "roll"
	msgMove         = "move"
	msgWatch        = "watch"
)

// типы исходящих сообщений
const (
	msgState         = "state"
	msgCountdown     = "countdown"
	msgMatchFound    = "match_found"
	msgSearchTimeout = "search_timeout"
	msgSearchStopped = "search_cancelled"
	msgSearchRetry   = "search_retry" // паринг сорвался, игрок снова в очереди
	msgResult        = "result"
	msgError         = "error"
)

func errorMessage(err error) Message {
	return Message{Type: msgError, Payload: map[string]string{"message": err.Error()}}
}

func countdownMessage(seconds int) Message {
	return Message{Type: msgCountdown, Payload: map[string]any{
		"seconds":   seconds,
		"timestamp": time.Now().UnixMilli(),
	}}
}
