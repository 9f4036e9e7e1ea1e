// Package notification sends operational email alerts over SMTP.
package notification

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"rcm_backend/internal/claims/repository"
	"rcm_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers operational alerts to the billing team.
type Sender interface {
	SendStuckClaimsDigest(ctx context.Context, stuck []repository.StuckClaim) error
}

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	opsEmail  string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		opsEmail:  cfg.GetOpsAlertAddress(),
	}
}

// SendStuckClaimsDigest emails the ops address a summary of claims that have
// sat in pending past the stuck threshold. An empty slice sends nothing.
func (s *SMTPSender) SendStuckClaimsDigest(ctx context.Context, stuck []repository.StuckClaim) error {
	if len(stuck) == 0 {
		return nil
	}

	subject := fmt.Sprintf("%d claims stuck in pending", len(stuck))

	var body strings.Builder
	body.WriteString("The following claims have been pending past the stuck threshold:\n\n")
	for _, sc := range stuck {
		days := int(time.Since(sc.LatestEventAt).Hours() / 24)
		fmt.Fprintf(&body, "- claim %s  payer %s  amount $%.2f  pending for %d days\n",
			sc.Claim.ID, sc.Claim.Payer, float64(sc.Claim.AmountCents)/100, days)
	}
	body.WriteString("\nReview these in the claims dashboard and follow up with the payer.\n")

	return s.send(ctx, s.opsEmail, subject, body.String())
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, textContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
