package notify

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"

	"github.com/wneessen/go-mail"
)

// Reason classifies a failed delivery.
type Reason string

const (
	ReasonAuth      Reason = "auth"
	ReasonProtocol  Reason = "protocol"
	ReasonTransport Reason = "transport"
	ReasonOther     Reason = "other"
)

var (
	// ErrDispatcherStopped is returned by Dispatch after Stop.
	ErrDispatcherStopped = errors.New("notification dispatcher stopped")
	// ErrQueueFull is returned by Dispatch when the job queue is full.
	ErrQueueFull = errors.New("notification queue full")
	// ErrNoRecipient is returned by Dispatch when the user has no email.
	ErrNoRecipient = errors.New("user has no email address")
)

// Failure is a classified delivery error. It is logged, never returned to clients.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	return "mail delivery failed (" + string(f.Reason) + "): " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify maps a send error to a Reason.
func Classify(err error) Reason {
	if err == nil {
		return ""
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535, 538:
			return ReasonAuth
		default:
			return ReasonProtocol
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonTransport
	}

	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return ReasonAuth
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		return ReasonProtocol
	}

	return ReasonOther
}
