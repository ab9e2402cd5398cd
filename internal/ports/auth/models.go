package auth

// Claims representa la información extraída del token.
// Role distingue al paciente de su caregiver; los handlers de tomas solo
// usan UserID (todo va scoped por dueño).
type Claims struct {
	UserID string
	Email  string
	Role   string
}
