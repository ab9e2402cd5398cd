package doses

import (
	"testing"
	"time"
)

func TestResolveStatus_Timeline(t *testing.T) {
	scheduled := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	d := Dose{ID: "d1", OwnerUserID: "u1", ScheduledAt: scheduled}

	cases := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"una hora antes", time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC), StatusUpcoming},
		{"un segundo antes", scheduled.Add(-time.Second), StatusUpcoming},
		{"justo a la hora", scheduled, StatusDue},
		{"diez minutos tarde", time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC), StatusDue},
		{"borde exacto de la ventana", scheduled.Add(GraceWindow), StatusDue},
		{"un segundo pasado el borde", scheduled.Add(GraceWindow + time.Second), StatusMissed},
		{"45 minutos tarde", time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC), StatusMissed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveStatus(d, tc.now); got != tc.want {
				t.Fatalf("ResolveStatus(now=%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestResolveStatus_TakenWinsAlways(t *testing.T) {
	scheduled := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	d := Dose{ID: "d1", ScheduledAt: scheduled, Taken: true}

	// taken gana a cualquier cómputo temporal, pasado o futuro
	for _, now := range []time.Time{
		scheduled.Add(-24 * time.Hour),
		scheduled,
		scheduled.Add(GraceWindow + time.Hour),
		scheduled.Add(72 * time.Hour),
	} {
		if got := ResolveStatus(d, now); got != StatusTaken {
			t.Fatalf("ResolveStatus(taken, now=%s) = %s, want taken", now, got)
		}
	}
}

func TestResolveStatus_PersistedMissedWins(t *testing.T) {
	scheduled := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	d := Dose{ID: "d1", ScheduledAt: scheduled, Missed: true}

	// missed persistido gana incluso antes de la hora agendada
	if got := ResolveStatus(d, scheduled.Add(-time.Hour)); got != StatusMissed {
		t.Fatalf("expected missed, got %s", got)
	}
}

func TestResolveStatus_PastDayGuard(t *testing.T) {
	// Agendada un día calendario anterior y todavía pendiente: siempre missed,
	// nunca upcoming, sin importar la comparación por hora del día.
	cases := []struct {
		name      string
		scheduled time.Time
		now       time.Time
	}{
		{
			"ayer a la mañana",
			time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			// Elapsed de semanas: mismo resultado, sin bugs de aritmética de duración
			"semanas atrás",
			time.Date(2023, 12, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC),
		},
		{
			// Dentro de la ventana de gracia pero cruzando medianoche: el guard gana
			"anoche cerca de medianoche",
			time.Date(2024, 1, 1, 23, 50, 0, 0, time.UTC),
			time.Date(2024, 1, 2, 0, 10, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Dose{ID: "d1", ScheduledAt: tc.scheduled}
			if got := ResolveStatus(d, tc.now); got != StatusMissed {
				t.Fatalf("expected missed, got %s", got)
			}
		})
	}
}

func TestResolveStatus_MorningDoseTimeline(t *testing.T) {
	// Toma agendada 2024-01-01T08:00
	scheduled := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	d := Dose{ID: "d1", ScheduledAt: scheduled}

	if got := ResolveStatus(d, time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC)); got != StatusDue {
		t.Fatalf("08:10 => %s, want due", got)
	}
	if got := ResolveStatus(d, time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC)); got != StatusMissed {
		t.Fatalf("08:45 => %s, want missed", got)
	}
	if got := ResolveStatus(d, time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)); got != StatusUpcoming {
		t.Fatalf("07:00 => %s, want upcoming", got)
	}
}
