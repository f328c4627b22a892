// Package notify holds the transient user-facing messages produced by
// board and dialog actions.
package notify

type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

type Notification struct {
	Kind    Kind
	Message string
}

func Info(message string) *Notification {
	return &Notification{Kind: KindInfo, Message: message}
}

func Success(message string) *Notification {
	return &Notification{Kind: KindSuccess, Message: message}
}

// Error builds an error notification. The cause, when present, is
// appended to the message.
func Error(message string, cause error) *Notification {
	if cause != nil {
		message += ": " + cause.Error()
	}
	return &Notification{Kind: KindError, Message: message}
}
