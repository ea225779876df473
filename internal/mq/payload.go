package mq

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// SubmitPayload — заявка на создание task через очередь.
type SubmitPayload struct {
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Category     string         `json:"category,omitempty"`
	Priority     int            `json:"priority"`
	Dependencies []uuid.UUID    `json:"dependencies,omitempty"`
	TTL          string         `json:"ttl,omitempty"` // Go duration: "30s", "5m"
	MaxRetries   int            `json:"max_retries"`
	Payload      map[string]any `json:"payload,omitempty"`
	Schedule     string         `json:"schedule,omitempty"`
}

// ToSpec преобразует заявку в domain.TaskSpec.
func (p SubmitPayload) ToSpec() (domain.TaskSpec, error) {
	spec := domain.TaskSpec{
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Priority:     p.Priority,
		Dependencies: p.Dependencies,
		MaxRetries:   p.MaxRetries,
		Payload:      p.Payload,
		Schedule:     p.Schedule,
	}

	if p.TTL != "" {
		ttl, err := time.ParseDuration(p.TTL)
		if err != nil {
			return domain.TaskSpec{}, domain.NewSpecError("ttl", fmt.Sprintf("parse ttl %q: %v", p.TTL, err))
		}
		spec.TTL = &ttl
	}

	return spec, nil
}
