package doses

import "time"

// GraceWindow es la ventana posterior a ScheduledAt durante la cual la toma
// sigue siendo "due" en vez de "missed". Es la única constante que gobierna
// la transición upcoming → due → missed.
const GraceWindow = 30 * time.Minute

// ResolveStatus deriva el estado de una toma para un instante dado.
// Función pura, sin side effects; el orden de evaluación es fijo:
//  1. taken persistido gana siempre
//  2. missed persistido
//  3. agendada un día calendario anterior => missed (guard contra skew de
//     reloj/zona que produciría "upcoming en el pasado")
//  4. antes de la hora => upcoming
//  5. dentro de la ventana de gracia => due
//  6. pasada la ventana => missed (derivado; el sweep lo persiste después)
func ResolveStatus(d Dose, now time.Time) Status {
	if d.Taken {
		return StatusTaken
	}
	if d.Missed {
		return StatusMissed
	}

	if beforeDay(d.ScheduledAt, now) {
		return StatusMissed
	}

	if now.Before(d.ScheduledAt) {
		return StatusUpcoming
	}
	if !now.After(d.ScheduledAt.Add(GraceWindow)) {
		return StatusDue
	}
	return StatusMissed
}

// beforeDay: true si t cae en un día calendario anterior al de now.
func beforeDay(t, now time.Time) bool {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty != ny {
		return ty < ny
	}
	if tm != nm {
		return tm < nm
	}
	return td < nd
}
