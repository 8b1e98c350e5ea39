package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"

	"merchant-statements/internal/logging"
)

// SMTPSender sends messages over SMTP with implicit TLS. When testMode is
// set, every message is redirected to the configured test recipient instead
// of the real one.
type SMTPSender struct {
	host          string
	port          int
	user          string
	password      string
	testMode      bool
	testRecipient string
	logger        logging.Logger
}

// NewSMTPSender creates an SMTPSender. testMode redirects all deliveries to
// testRecipient.
func NewSMTPSender(host string, port int, user, password string, testMode bool, testRecipient string, logger logging.Logger) *SMTPSender {
	mode := "production"
	if testMode {
		mode = "test"
	}
	logger.Info("Message transport initialized",
		logging.F("host", host),
		logging.F("mode", mode))

	return &SMTPSender{
		host:          host,
		port:          port,
		user:          user,
		password:      password,
		testMode:      testMode,
		testRecipient: testRecipient,
		logger:        logger,
	}
}

// Send delivers one message. The context bounds the whole exchange.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	to := msg.To
	if s.testMode {
		s.logger.Info("Test mode: redirecting delivery",
			logging.F("original", msg.To),
			logging.F("redirected", s.testRecipient))
		to = s.testRecipient
	}

	payload, err := buildMIME(msg, to)
	if err != nil {
		return err
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("error connecting to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("error starting SMTP session: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close SMTP session")
		}
	}()

	if s.user != "" {
		auth := smtp.PlainAuth("", s.user, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("error authenticating with SMTP server: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("error setting sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("error setting recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("error opening message body: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return fmt.Errorf("error writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error finishing message body: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.logger.WithError(err).Warn("SMTP quit failed after delivery")
	}

	s.logger.Info("Message delivered",
		logging.F("to", to),
		logging.F("attachments", len(msg.Attachments)))
	return nil
}

// buildMIME assembles a multipart/mixed payload: plain-text body plus
// base64-encoded attachments.
func buildMIME(msg Message, to string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("error creating text part: %w", err)
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("error writing text part: %w", err)
	}

	for _, attachment := range msg.Attachments {
		content, err := os.ReadFile(attachment)
		if err != nil {
			return nil, fmt.Errorf("error reading attachment %s: %w", attachment, err)
		}

		name := filepath.Base(attachment)
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "application/octet-stream")
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("error creating attachment part: %w", err)
		}

		encoded := make([]byte, base64.StdEncoding.EncodedLen(len(content)))
		base64.StdEncoding.Encode(encoded, content)
		if _, err := part.Write(encoded); err != nil {
			return nil, fmt.Errorf("error writing attachment %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error finishing message: %w", err)
	}
	return buf.Bytes(), nil
}
