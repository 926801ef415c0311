package service

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dpshade/pocket-crm/internal/models"
)

const (
	topClientsLimit   = 10
	topClientNameSize = 15
)

// ClientValue is one bar of the top clients chart
type ClientValue struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Dashboard is the home screen summary
type Dashboard struct {
	Faturamento  float64       `json:"faturamento"`
	ReceitaAnual float64       `json:"receitaAnual"`
	Meta         float64       `json:"meta"`
	MetaPercent  float64       `json:"metaPercent"`
	TopClients   []ClientValue `json:"topClients"`
	Clientes     int           `json:"clientes"`
	Contratos    int           `json:"contratosAtivos"`
	Demandas     int           `json:"demandasAbertas"`
	Mes          Totals        `json:"mes"`
}

// GoalPercent returns current/goal as a percentage capped at 100
func GoalPercent(current, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(current/goal*100, 100)
}

// Dashboard computes revenue, goal progress, top clients and open work.
// The four record lists are loaded concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		clients []*models.Client
		active  []*models.Contract
		demands []*models.Demand
		month   []*models.Transaction
	)
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clients, err = s.ListClients(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.ActiveContracts(gctx)
		return err
	})
	g.Go(func() (err error) {
		demands, err = s.ListDemands(gctx)
		return err
	})
	g.Go(func() (err error) {
		month, err = s.TransactionsByMonth(gctx, int(now.Month()), now.Year())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Meta:       s.opts.RevenueGoal,
		Clientes:   len(clients),
		Contratos:  len(active),
		TopClients: []ClientValue{},
		Mes:        SumTransactions(month),
	}
	for _, c := range clients {
		d.Faturamento += c.MonthlyValue()
	}
	d.ReceitaAnual = d.Faturamento * 12
	d.MetaPercent = GoalPercent(d.Faturamento, d.Meta)

	ranked := append(clients[:0:0], clients...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ValorPago > ranked[j].ValorPago
	})
	if len(ranked) > topClientsLimit {
		ranked = ranked[:topClientsLimit]
	}
	for _, c := range ranked {
		d.TopClients = append(d.TopClients, ClientValue{
			ID:    c.ID,
			Name:  c.DisplayName(topClientNameSize),
			Value: c.ValorPago,
		})
	}

	for _, dm := range demands {
		if dm.IsOpen() {
			d.Demandas++
		}
	}
	return d, nil
}
