package notification

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/epi-platform/admin-api/internal/config"
	"github.com/epi-platform/admin-api/internal/model"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service interface {
	LowStock(ctx context.Context, alert model.LowStockAlert) error
}

type service struct {
	sender     Sender
	from       string
	recipients []string
}

// NewService returns a mail notifier, or a no-op when SMTP is not configured.
func NewService(cfg config.MailConfig) Service {
	if cfg.Host == "" || len(cfg.Recipients) == 0 {
		return nopService{}
	}
	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, cfg.Recipients)
}

func NewWithSender(sender Sender, from string, recipients []string) Service {
	return &service{
		sender:     sender,
		from:       from,
		recipients: recipients,
	}
}

func (s *service) LowStock(ctx context.Context, alert model.LowStockAlert) error {
	if len(alert.Regions) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.recipients...)
	m.SetHeader("Subject", fmt.Sprintf("Low stock: %s", alert.ProductName))
	m.SetBody("text/plain", lowStockBody(alert))

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send low stock alert: %w", err)
	}
	return nil
}

func lowStockBody(alert model.LowStockAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is at or below %d units in:\n\n", alert.ProductName, alert.ProductID, alert.Threshold)
	for _, r := range alert.Regions {
		fmt.Fprintf(&b, "  %s: %d left\n", r.Region, r.StockQuantity)
	}
	return b.String()
}

type nopService struct{}

func (nopService) LowStock(context.Context, model.LowStockAlert) error { return nil }
