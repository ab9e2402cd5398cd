package doses

// Status es el estado derivado de una toma.
// @Enum upcoming, due, taken, missed
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusDue      Status = "due"
	StatusTaken    Status = "taken"
	StatusMissed   Status = "missed"
)

// ParseStatus valida un status recibido como texto (filtros de query).
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUpcoming, StatusDue, StatusTaken, StatusMissed:
		return Status(s), true
	default:
		return "", false
	}
}
