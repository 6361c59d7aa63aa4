package model

// Persisted store keys. The legacy records key is written in lockstep with
// RecordsKey so older readers keep working.
const (
	RecordsKey       = "mantenimiento_registros_v1"
	LegacyRecordsKey = "mantenimiento_trabajos_v1"
	PaymentsKey      = "mantenimiento_extra_pagos_v1"
)

// DefaultContractualHours is the reference working day used when a record
// does not carry its own contractual hours.
const DefaultContractualHours = 8.0

// DefaultBreak is the break duration assumed when none was entered.
const DefaultBreak = "00:00"

// Material is a consumable used during a visit. Quantity is free text so
// user-entered units survive ("2 m", "1,5 kg").
type Material struct {
	Name     string `json:"nombre"`
	Quantity string `json:"cantidad"`
}

// Empty reports whether both fields are blank. Empty materials are never persisted.
func (m Material) Empty() bool {
	return m.Name == "" && m.Quantity == ""
}

// CompletedTask is a finished job together with the materials it consumed.
type CompletedTask struct {
	Text      string     `json:"texto"`
	Materials []Material `json:"materiales"`
}

// WorkRecord is one maintenance-visit log entry in canonical shape.
//
// Materials is the concatenation of every CompletedTasks[*].Materials and
// OvertimeHours is max(0, WorkedHours-ContractualHours); both are recomputed
// on every normalization pass.
type WorkRecord struct {
	ID               string          `json:"id"`
	Date             string          `json:"fecha"`
	Company          string          `json:"empresa"`
	Locality         string          `json:"localidad"`
	Site             string          `json:"ubicacion"`
	StartTime        string          `json:"horaInicio"`
	EndTime          string          `json:"horaFin"`
	BreakDuration    string          `json:"descanso"`
	ContractualHours float64         `json:"horasLegales"`
	WorkedHours      float64         `json:"horasTrabajadas"`
	OvertimeHours    float64         `json:"horasExtra"`
	Materials        []Material      `json:"materiales"`
	CompletedTasks   []CompletedTask `json:"trabajosCompletados"`
	PendingTasks     []string        `json:"trabajosPendientes"`
	Notes            string          `json:"observaciones"`
	CreatedAt        string          `json:"createdAt"`
}

// Payment records overtime hours that the employer has already paid out.
type Payment struct {
	ID        string  `json:"id"`
	Date      string  `json:"fecha"`
	Hours     float64 `json:"horas"`
	Note      string  `json:"nota"`
	CreatedAt string  `json:"createdAt"`
}
