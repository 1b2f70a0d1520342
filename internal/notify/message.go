package notify

import "fmt"

// Message is the body action endpoints respond with.
type Message struct {
	Message string `json:"message"`
	Result  bool   `json:"result"`
	Type    string `json:"type"`
}

// NewMessage formats a response message; an empty label becomes "warning".
func NewMessage(message any, result bool, label string) Message {
	if label == "" {
		label = TypeWarning
	}
	text := "None"
	if message != nil {
		text = fmt.Sprint(message)
	}
	return Message{Message: text, Result: result, Type: label}
}

// ErrorMessage wraps an error as a failed message.
func ErrorMessage(err error) Message {
	return NewMessage(err, false, TypeWarning)
}
