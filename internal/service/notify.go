package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// MailNotifier delivers one-time codes over SMTP. Every network step runs
// against the caller's context deadline, so a dead or slow SMTP host fails
// the dispatch instead of stalling the issuing turn. Delivery failure is the
// caller's problem to surface; the code stays valid either way.
type MailNotifier struct {
	host   string
	port   int
	sender string
	pass   string
}

func NewMailNotifier(host string, port int, sender, pass string) *MailNotifier {
	return &MailNotifier{host: host, port: port, sender: sender, pass: pass}
}

// SendOTP implements domain.Notifier.
func (n *MailNotifier) SendOTP(ctx context.Context, email, code string) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if n.pass != "" {
		auth := smtp.PlainAuth("", n.sender, n.pass, n.host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(n.sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your verification code\r\n\r\n"+
		"Your OTP is %s. It is valid for this conversation only.\r\n",
		n.sender, email, code)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return c.Quit()
}
