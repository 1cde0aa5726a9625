package mailer

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"mail-autoreply/internal/common/errors"
)

// SMTPTransport sends mail through the account's provider over STARTTLS with
// PLAIN authentication. One connection per message; the tool's volume does
// not justify connection reuse.
type SMTPTransport struct {
	host             string
	port             int
	username         string
	password         string
	fallbackPassword string
	timeout          time.Duration
}

func NewSMTPTransport(host string, port int, username, password, fallbackPassword string, timeout time.Duration) *SMTPTransport {
	return &SMTPTransport{
		host:             host,
		port:             port,
		username:         username,
		password:         password,
		fallbackPassword: fallbackPassword,
		timeout:          timeout,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	err := t.sendOnce(ctx, msg, t.password)
	if err != nil && errors.CodeOf(err) == errors.ErrCodeSMTPAuthFailed && t.fallbackPassword != "" {
		return t.sendOnce(ctx, msg, t.fallbackPassword)
	}
	return err
}

func (t *SMTPTransport) sendOnce(ctx context.Context, msg Message, password string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	conn, err := net.DialTimeout("tcp", addr, t.timeout)
	if err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("connect to %s: %w", addr, err))
	}
	_ = conn.SetDeadline(time.Now().Add(t.timeout))

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return errors.NewSendFailedError(msg.To, fmt.Errorf("smtp handshake: %w", err))
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: t.host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("start TLS: %w", err))
	}

	auth := smtp.PlainAuth("", t.username, password, t.host)
	if err := client.Auth(auth); err != nil {
		return errors.NewSMTPAuthFailedError(t.username, err)
	}

	if err := client.Mail(msg.From); err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("set sender: %w", err))
	}

	if err := client.Rcpt(msg.To); err != nil {
		if isPermanentReply(err) {
			return errors.NewRecipientRejectedError(msg.To, err)
		}
		return errors.NewSendFailedError(msg.To, fmt.Errorf("set recipient: %w", err))
	}

	w, err := client.Data()
	if err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("open data writer: %w", err))
	}
	if _, err := w.Write([]byte(buildMessage(msg, t.host))); err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("write message: %w", err))
	}
	if err := w.Close(); err != nil {
		return errors.NewSendFailedError(msg.To, fmt.Errorf("close data writer: %w", err))
	}

	// The message is accepted once the DATA terminator is acknowledged; a
	// failed QUIT must not look like a failed send, or the retry path would
	// deliver a duplicate.
	_ = client.Quit()
	return nil
}

// isPermanentReply reports whether err is a 5xx server reply.
func isPermanentReply(err error) bool {
	var protoErr *textproto.Error
	if stderrors.As(err, &protoErr) {
		return protoErr.Code >= 500 && protoErr.Code < 600
	}
	return false
}

// buildMessage assembles the RFC 5322 message with UTF-8 plain-text body and
// MIME-encoded headers so Japanese subjects and names survive transport.
func buildMessage(msg Message, host string) string {
	var builder strings.Builder

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", msg.FromName), msg.From)
	}

	builder.WriteString(fmt.Sprintf("From: %s\r\n", from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject)))
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	builder.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), host))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	builder.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(msg.Body)

	return builder.String()
}
