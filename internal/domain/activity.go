package domain

import "time"

// ActivityLog registra uma ação administrativa para auditoria.
// A gravação é fire-and-forget: falhas são apenas logadas, nunca
// interrompem a operação de negócio.
type ActivityLog struct {
	ID         string         `json:"id"`
	ActorID    int            `json:"actor_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
