// Package notify delivers generated reports by email. One send is one SMTP
// conversation; there are no retries, the caller decides whether to try
// again.
package notify

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	settingsdomain "github.com/aibes/standsight/internal/settings/domain"
)

var (
	ErrNotConfigured     = errors.New("email_not_configured")
	ErrSenderMissing     = errors.New("sender_missing")
	ErrNoRecipients      = errors.New("no_recipients")
	ErrAttachmentMissing = errors.New("attachment_missing")
	ErrAuthFailed        = errors.New("smtp_auth_failed")
	ErrRecipientsRefused = errors.New("recipients_refused")
	ErrServerClosed      = errors.New("smtp_server_closed")
)

const dialTimeout = 30 * time.Second

type Params struct {
	fx.In

	Settings settingsdomain.Service
	Log      *zap.Logger
}

type Dispatcher struct {
	settings settingsdomain.Service
	log      *zap.Logger
}

func New(p Params) *Dispatcher {
	return &Dispatcher{
		settings: p.Settings,
		log:      p.Log.Named("notify.dispatcher"),
	}
}

// Send emails the report at path to the given recipients using the stored
// SMTP profile. The attachment is read before any network traffic so a
// missing file never opens a connection.
func (d *Dispatcher) Send(ctx context.Context, path string, recipients []string, subject, message string) error {
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	profile, err := d.settings.Email(ctx)
	if err != nil {
		return err
	}
	if !profile.Configured() {
		return ErrNotConfigured
	}

	sender := profile.SenderEmail
	if sender == "" {
		return ErrSenderMissing
	}

	attachment, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrAttachmentMissing
		}
		return err
	}

	body := buildMessage(profile, sender, recipients, subject, message, filepath.Base(path), attachment)

	addr := fmt.Sprintf("%s:%d", profile.SMTPServer, profile.SMTPPort)
	if err := d.deliver(ctx, profile, addr, sender, recipients, body); err != nil {
		d.log.Error("email delivery failed",
			zap.String("server", addr),
			zap.Int("recipients", len(recipients)),
			zap.Error(err),
		)
		return err
	}

	d.log.Info("report emailed",
		zap.String("attachment", filepath.Base(path)),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

// deliver runs the SMTP conversation step by step so failures can be mapped
// to a stage: auth, recipients, or a dropped connection.
func (d *Dispatcher) deliver(ctx context.Context, profile settingsdomain.EmailProfile, addr, sender string, recipients []string, body []byte) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return classify(err)
	}

	client, err := smtp.NewClient(conn, profile.SMTPServer)
	if err != nil {
		conn.Close()
		return classify(err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: profile.SMTPServer}); err != nil {
			return classify(err)
		}
	}

	auth := smtp.PlainAuth("", profile.Username, profile.Password, profile.SMTPServer)
	if err := client.Auth(auth); err != nil {
		return classifyAuth(err)
	}

	if err := client.Mail(sender); err != nil {
		return classify(err)
	}
	refused := 0
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			d.log.Warn("recipient refused", zap.String("recipient", rcpt), zap.Error(err))
			refused++
		}
	}
	if refused == len(recipients) {
		return ErrRecipientsRefused
	}

	wc, err := client.Data()
	if err != nil {
		return classify(err)
	}
	if _, err := wc.Write(body); err != nil {
		wc.Close()
		return classify(err)
	}
	if err := wc.Close(); err != nil {
		return classify(err)
	}

	return client.Quit()
}

func classifyAuth(err error) error {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		switch proto.Code {
		case 535, 534, 530:
			return errors.Join(ErrAuthFailed, err)
		}
	}
	return classify(err)
}

func classify(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.Join(ErrServerClosed, err)
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return errors.Join(ErrServerClosed, err)
	}
	var proto *textproto.Error
	if errors.As(err, &proto) {
		switch proto.Code {
		case 550, 553:
			return errors.Join(ErrRecipientsRefused, err)
		case 535, 534, 530:
			return errors.Join(ErrAuthFailed, err)
		}
	}
	return err
}

func cleanRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r != "" && strings.Contains(r, "@") {
			out = append(out, r)
		}
	}
	return out
}

// buildMessage assembles a multipart MIME message: an HTML body part plus
// the PDF attachment encoded in base64.
func buildMessage(profile settingsdomain.EmailProfile, sender string, recipients []string, subject, message, filename string, attachment []byte) []byte {
	const boundary = "standsight-report-boundary"

	from := sender
	if profile.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", profile.SenderName), sender)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(recipients, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody(message))
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: application/pdf; name=\"" + filename + "\"\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + filename + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		b.WriteString(encoded[:n])
		b.WriteString("\r\n")
		encoded = encoded[n:]
	}

	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

func htmlBody(message string) string {
	paragraphs := strings.Split(message, "\n")
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(p))
		b.WriteString("</p>")
	}
	b.WriteString("<hr><p style=\"color:#888;font-size:12px\">This is an automated message. Please do not reply.</p>")
	b.WriteString("</body></html>")
	return b.String()
}

var Module = fx.Module("notify.dispatcher",
	fx.Provide(New),
)
