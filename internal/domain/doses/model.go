package doses

import "time"

// Dose representa una toma programada de un medicamento para un usuario.
// ScheduledAt es la única fuente de verdad del horario: una toma ya resuelta
// nunca se re-agenda mutando la hora; siempre se crea una Dose nueva.
type Dose struct {
	ID          string
	OwnerUserID string

	MedName      string
	Dosage       string
	TrayLocation string

	ScheduledAt time.Time

	// Taken la setea solo el flujo de mark-taken; una vez true no vuelve a false.
	Taken bool
	// Missed la setea solo el sweep (o queda derivado hasta que el sweep lo persista).
	// Taken y Missed nunca son true a la vez.
	Missed bool

	CreatedAt time.Time
}
