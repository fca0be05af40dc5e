package notify

import (
	"fmt"
	"strings"

	"github.com/logmonitor/logmonitor/internal/db/models"
)

// Signature closes every notification body.
const Signature = "Log Monitor"

// Message is one composed notification.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Compose builds the notification for one event.
func Compose(from string, user models.User, level, message string) Message {
	upper := strings.ToUpper(level)

	body := fmt.Sprintf(`Hello %s,

You have received a new log:

- Level: %s
- Message:

%s


Regards,
%s
`, user.Name, upper, message, Signature)

	return Message{
		From:    from,
		To:      user.Email,
		Subject: fmt.Sprintf("[%s] New log for %s", upper, user.Name),
		Body:    body,
	}
}
