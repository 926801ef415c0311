package models

import (
	"strings"
	"time"
)

// DemandStatus is the workflow state of a demand
type DemandStatus string

const (
	DemandPendente    DemandStatus = "pendente"
	DemandEmAndamento DemandStatus = "em_andamento"
	DemandConcluida   DemandStatus = "concluida"
	DemandAtrasada    DemandStatus = "atrasada"
)

// DemandStatuses lists the statuses in board order
var DemandStatuses = []DemandStatus{DemandPendente, DemandEmAndamento, DemandConcluida, DemandAtrasada}

// Priority ranks demands
type Priority string

const (
	PriorityBaixa   Priority = "baixa"
	PriorityMedia   Priority = "media"
	PriorityAlta    Priority = "alta"
	PriorityUrgente Priority = "urgente"
)

// Priorities lists the priorities from lowest to highest
var Priorities = []Priority{PriorityBaixa, PriorityMedia, PriorityAlta, PriorityUrgente}

// TaskItem is one checklist entry of a demand
type TaskItem struct {
	ID        string `json:"id"`
	Titulo    string `json:"titulo"`
	Concluida bool   `json:"concluida"`
}

// Demand is a client request tracked through to delivery
type Demand struct {
	ID          string       `json:"id"`
	ClientID    string       `json:"clientId"`
	ClientName  string       `json:"clientName"`
	Demanda     string       `json:"demanda"`
	Descricao   string       `json:"descricao"`
	DataPedido  time.Time    `json:"dataPedido"`
	DataEntrega time.Time    `json:"dataEntrega"`
	Responsavel string       `json:"responsavel"`
	Status      DemandStatus `json:"status"`
	Prioridade  Priority     `json:"prioridade"`
	Tarefas     []TaskItem   `json:"tarefas"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// NormalizeDemandStatus maps stored values onto a known status.
// The legacy hyphenated spelling is accepted; anything else becomes pendente.
func NormalizeDemandStatus(s string) DemandStatus {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case string(DemandEmAndamento):
		return DemandEmAndamento
	case string(DemandConcluida):
		return DemandConcluida
	case string(DemandAtrasada):
		return DemandAtrasada
	default:
		return DemandPendente
	}
}

// NormalizePriority maps stored values onto a known priority, defaulting to media
func NormalizePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Priorities {
		if p == known {
			return p
		}
	}
	return PriorityMedia
}

// Normalize cleans status, priority and a nil task list in place
func (d *Demand) Normalize() {
	d.Status = NormalizeDemandStatus(string(d.Status))
	d.Prioridade = NormalizePriority(string(d.Prioridade))
	if d.Tarefas == nil {
		d.Tarefas = []TaskItem{}
	}
}

// IsOpen reports whether the demand still needs work
func (d *Demand) IsOpen() bool {
	return d.Status != DemandConcluida
}

// Progress returns completed and total checklist items
func (d *Demand) Progress() (done, total int) {
	for _, t := range d.Tarefas {
		if t.Concluida {
			done++
		}
	}
	return done, len(d.Tarefas)
}

// ToggleTask flips the completion flag of a task. It reports whether the task exists.
func (d *Demand) ToggleTask(taskID string) bool {
	for i := range d.Tarefas {
		if d.Tarefas[i].ID == taskID {
			d.Tarefas[i].Concluida = !d.Tarefas[i].Concluida
			return true
		}
	}
	return false
}
