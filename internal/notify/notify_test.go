package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/metrics"
)

type staticSettings struct {
	mail appsettings.Mail
	err  error
}

func (s staticSettings) Transport() (appsettings.Mail, error) {
	return s.mail, s.err
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	delay time.Duration
}

func (f *fakeSender) Send(ctx context.Context, _ appsettings.Mail, msg Message) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, msg)

	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

var (
	alice = models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	bob   = models.User{ID: 2, Name: "Bob"}

	configured = appsettings.Mail{
		Enabled: true, Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "pw", UseTLS: true,
	}
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestTLSModeFor(t *testing.T) {
	testCases := []struct {
		port          int
		useTLS        bool
		allowInsecure bool
		expected      TLSMode
	}{
		{port: 465, useTLS: false, expected: TLSImplicit},
		{port: 465, useTLS: true, expected: TLSStartTLS},
		{port: 587, useTLS: true, expected: TLSStartTLS},
		{port: 587, useTLS: false, expected: TLSStartTLS},
		{port: 25, useTLS: false, allowInsecure: true, expected: TLSNone},
		{port: 25, useTLS: true, allowInsecure: true, expected: TLSStartTLS},
		{port: 465, useTLS: false, allowInsecure: true, expected: TLSImplicit},
	}

	for _, tc := range testCases {
		name := fmt.Sprintf("port=%d tls=%v insecure=%v", tc.port, tc.useTLS, tc.allowInsecure)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TLSModeFor(tc.port, tc.useTLS, tc.allowInsecure))
		})
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Reason
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "bad credentials", err: fmt.Errorf("SMTP AUTH failed: %w", &textproto.Error{Code: 535, Msg: "5.7.8 bad"}), expected: ReasonAuth},
		{name: "auth required", err: &textproto.Error{Code: 530, Msg: "auth required"}, expected: ReasonAuth},
		{name: "mailbox unavailable", err: &textproto.Error{Code: 550, Msg: "no such user"}, expected: ReasonProtocol},
		{name: "deadline", err: context.DeadlineExceeded, expected: ReasonTransport},
		{name: "net timeout", err: &net.OpError{Op: "dial", Err: timeoutErr{}}, expected: ReasonTransport},
		{name: "auth mechanism", err: errors.New("unencrypted connection: PLAIN auth refused"), expected: ReasonAuth},
		{name: "anything else", err: errors.New("boom"), expected: ReasonOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.err))
		})
	}
}

func TestCompose(t *testing.T) {
	msg := Compose("bot@example.com", alice, "error", "disk full")

	assert.Equal(t, "[ERROR] New log for Alice", msg.Subject)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "bot@example.com", msg.From)
	assert.Contains(t, msg.Body, "Hello Alice,")
	assert.Contains(t, msg.Body, "- Level: ERROR")
	assert.Contains(t, msg.Body, "disk full")
	assert.True(t, strings.HasSuffix(msg.Body, Signature+"\n"))
}

func TestMailSenderOptions(t *testing.T) {
	s := MailSender{Timeout: time.Second}

	assert.Len(t, s.Options(configured), 6)

	noTimeout := MailSender{}
	assert.Len(t, noTimeout.Options(configured), 5)
}

func TestDeliver(t *testing.T) {
	testCases := []struct {
		name      string
		settings  staticSettings
		senderErr error
		expected  string
		sent      int
	}{
		{name: "sent", settings: staticSettings{mail: configured}, expected: ResultSent, sent: 1},
		{name: "forwarding disabled", settings: staticSettings{mail: func() appsettings.Mail {
			m := configured
			m.Enabled = false

			return m
		}()}, expected: ResultSkipped},
		{name: "incomplete transport", settings: staticSettings{mail: func() appsettings.Mail {
			m := configured
			m.Password = ""

			return m
		}()}, expected: ResultSkipped},
		{name: "settings unreadable", settings: staticSettings{err: errors.New("db down")}, expected: string(ReasonOther)},
		{
			name:      "wrong credentials",
			settings:  staticSettings{mail: configured},
			senderErr: &textproto.Error{Code: 535, Msg: "bad credentials"},
			expected:  string(ReasonAuth),
		},
		{
			name:      "server unreachable",
			settings:  staticSettings{mail: configured},
			senderErr: &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			expected:  string(ReasonTransport),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			counters := metrics.NewUnregistered()
			sender := &fakeSender{err: tc.senderErr}
			d := New(tc.settings, sender, Options{}, counters)

			assert.Equal(t, tc.expected, d.Deliver(alice, "error", "disk full"))
			assert.Equal(t, tc.sent, sender.count())
			assert.InDelta(t, 1, testutil.ToFloat64(counters.MailDispatch.WithLabelValues(tc.expected)), 0)
		})
	}
}

func TestDeliverTimeout(t *testing.T) {
	sender := &fakeSender{delay: time.Second}
	d := New(staticSettings{mail: configured}, sender, Options{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	assert.Equal(t, string(ReasonTransport), d.Deliver(alice, "info", "slow"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDispatchWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	d := New(staticSettings{mail: configured}, sender, Options{}, nil)
	d.Start()

	require.ErrorIs(t, d.Dispatch(bob, "info", "x"), ErrNoRecipient)

	d.Stop()
	assert.Zero(t, sender.count())
}

func TestDispatchDeliversInBackground(t *testing.T) {
	sender := &fakeSender{}
	d := New(staticSettings{mail: configured}, sender, Options{Workers: 3, QueueSize: 10}, nil)
	d.Start()

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Dispatch(alice, "info", "x"))
	}

	d.Stop()
	assert.Equal(t, 5, sender.count())

	require.ErrorIs(t, d.Dispatch(alice, "info", "late"), ErrDispatcherStopped)
	d.Stop()
}

func TestDispatchNeverBlocks(t *testing.T) {
	counters := metrics.NewUnregistered()
	d := New(staticSettings{mail: configured}, &fakeSender{}, Options{QueueSize: 1}, counters)

	require.NoError(t, d.Dispatch(alice, "info", "queued"))
	require.ErrorIs(t, d.Dispatch(alice, "info", "dropped"), ErrQueueFull)
	assert.InDelta(t, 1, testutil.ToFloat64(counters.MailDispatch.WithLabelValues(ResultDropped)), 0)
}

func TestFailure(t *testing.T) {
	cause := errors.New("boom")
	f := &Failure{Reason: ReasonOther, Err: cause}

	require.ErrorIs(t, f, cause)
	assert.Equal(t, "mail delivery failed (other): boom", f.Error())
}
