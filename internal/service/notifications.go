package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dpshade/pocket-crm/internal/models"
)

const (
	deadlineWarnDays   = 2
	paymentGraceDays   = 5
	paymentExpectDays  = 1
	notificationDayDur = 24 * time.Hour
)

// daysBetween returns floor((to-from)/24h)
func daysBetween(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(notificationDayDur)))
}

// Notifications derives deadline and payment alerts from the current records.
// Demand deadlines come first (earliest delivery first), then income
// transactions. Nothing is stored.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	demands, err := s.ListDemands(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := []models.Notification{}
	for _, d := range demands {
		if n, ok := deadlineNotification(d, now); ok {
			list = append(list, n)
		}
	}
	for _, t := range transactions {
		if n, ok := paymentNotification(t, now); ok {
			list = append(list, n)
		}
	}
	return list, nil
}

func deadlineNotification(d *models.Demand, now time.Time) (models.Notification, bool) {
	switch d.Status {
	case models.DemandPendente, models.DemandEmAndamento, models.DemandAtrasada:
	default:
		return models.Notification{}, false
	}

	delta := daysBetween(now, d.DataEntrega)
	if delta > deadlineWarnDays {
		return models.Notification{}, false
	}

	when := "hoje"
	if delta > 0 {
		when = fmt.Sprintf("%d dia(s)", delta)
	}
	severity := models.SeverityWarn
	if delta < 0 || d.Status == models.DemandAtrasada {
		severity = models.SeverityDanger
	}
	return models.Notification{
		ID:          "prazo-" + d.ID,
		Title:       "Prazo em " + when,
		Description: fmt.Sprintf("%s • %s", d.Demanda, d.Responsavel),
		Type:        models.NotificationPrazo,
		Severity:    severity,
		CreatedAt:   now,
	}, true
}

func paymentNotification(t *models.Transaction, now time.Time) (models.Notification, bool) {
	if t.Tipo != models.Entrada {
		return models.Notification{}, false
	}

	delta := daysBetween(t.DueDate(now.Location()), now)
	n := models.Notification{
		Type:      models.NotificationPagamento,
		CreatedAt: now,
	}
	switch {
	case delta < -paymentExpectDays:
		return models.Notification{}, false
	case delta < 0:
		n.ID = "pag-hoje-" + t.ID
		n.Title = "Pagamento esperado"
		n.Description = fmt.Sprintf("%s (vence em %d dia)", t.Descricao, -delta)
		n.Severity = models.SeverityInfo
	case delta <= paymentGraceDays:
		n.ID = "pag-pendente-" + t.ID
		n.Title = "Pagamento pendente"
		n.Description = fmt.Sprintf("%s (%d dia(s) após vencimento)", t.Descricao, delta)
		n.Severity = models.SeverityWarn
	default:
		n.ID = "pag-atrasado-" + t.ID
		n.Title = "Pagamento atrasado"
		n.Description = fmt.Sprintf("%s (%d dia(s) após vencimento)", t.Descricao, delta)
		n.Severity = models.SeverityDanger
	}
	return n, true
}
