package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"med-adherence-dashboard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/doses", func(dr chi.Router) {
		dr.Post("/", createDoseHandler(svc))
		dr.Get("/", listDosesHandler(svc))

		// Contadores del dashboard (por estado derivado)
		dr.Get("/stats", statsHandler(svc))

		dr.Get("/{doseID}", getDoseHandler(svc))
		dr.Post("/{doseID}/taken", markTakenHandler(svc))
		dr.Delete("/{doseID}", deleteDoseHandler(svc))
	})
}

// createDoseRequest es el cuerpo para agendar una toma nueva.
// La fecha y la hora vienen separadas (los dos campos del formulario).
type createDoseRequest struct {
	MedName       string `json:"medName"`
	Dosage        string `json:"dosage"`
	ScheduledDate string `json:"scheduledDate"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduledTime"` // HH:MM
	TrayLocation  string `json:"trayLocation"`
}

// doseResponse mantiene los nombres de campo del store
// (medName, dosage, scheduledTime, trayLocation, taken, missed, createdAt).
type doseResponse struct {
	ID            string    `json:"id"`
	MedName       string    `json:"medName"`
	Dosage        string    `json:"dosage"`
	ScheduledTime time.Time `json:"scheduledTime"`
	TrayLocation  string    `json:"trayLocation"`
	Taken         bool      `json:"taken"`
	Missed        bool      `json:"missed"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        Status    `json:"status"`
}

type markTakenResponse struct {
	Dose doseResponse  `json:"dose"`
	Next *doseResponse `json:"next,omitempty"`
	// NextError solo viene en falla parcial: la toma quedó confirmada pero
	// la siguiente ocurrencia no se creó.
	NextError string `json:"next_error,omitempty"`
}

type statsResponse struct {
	Total    int `json:"total"`
	Taken    int `json:"taken"`
	Missed   int `json:"missed"`
	Due      int `json:"due"`
	Upcoming int `json:"upcoming"`
}

// createDoseHandler godoc
// @Summary Agendar una toma
// @Description Agenda una toma de medicación para el usuario autenticado. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags doses
// @Accept json
// @Produce json
// @Param payload body createDoseRequest true "Datos de la toma; scheduledDate YYYY-MM-DD, scheduledTime HH:MM"
// @Success 201 {object} doseResponse
// @Failure 400 {string} string "invalid json / schedule inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /doses [post]
func createDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		scheduledAt, err := parseSchedule(req.ScheduledDate, req.ScheduledTime)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		d, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			MedName:      req.MedName,
			Dosage:       req.Dosage,
			TrayLocation: req.TrayLocation,
			ScheduledAt:  scheduledAt,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidSchedule):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDoseResponse(d, svc.StatusOf(d)))
	}
}

// listDosesHandler godoc
// @Summary Listar tomas del usuario
// @Description Lista las tomas del usuario ordenadas por horario, cada una con su estado derivado. Filtros: status (upcoming|due|taken|missed), from/to (RFC3339), limit.
// @Tags doses
// @Produce json
// @Success 200 {array} doseResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /doses [get]
func listDosesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		in, err := parseListInput(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID, in)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]doseResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDoseResponse(d, svc.StatusOf(d)))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		st, err := svc.StatsByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, statsResponse{
			Total:    st.Total,
			Taken:    st.Taken,
			Missed:   st.Missed,
			Due:      st.Due,
			Upcoming: st.Upcoming,
		})
	}
}

func getDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		doseID := chi.URLParam(r, "doseID")
		d, err := svc.GetByID(r.Context(), claims.UserID, doseID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "dose not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toDoseResponse(d, svc.StatusOf(d)))
	}
}

// markTakenHandler godoc
// @Summary Confirmar una toma
// @Description Marca la toma como tomada y agenda la ocurrencia del día siguiente. Repetir la llamada no duplica la siguiente ocurrencia. Si la toma quedó confirmada pero la siguiente no se pudo crear, la respuesta trae `next_error` (falla parcial, recuperable re-creando la toma con POST /doses).
// @Tags doses
// @Produce json
// @Param doseID path string true "ID de la toma"
// @Success 200 {object} markTakenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "dose not found"
// @Failure 500 {string} string "internal error"
// @Router /doses/{doseID}/taken [post]
func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		doseID := chi.URLParam(r, "doseID")
		d, next, err := svc.MarkTaken(r.Context(), claims.UserID, doseID)
		if err != nil && !errors.Is(err, ErrNextNotCreated) {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "dose not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := markTakenResponse{Dose: toDoseResponse(d, svc.StatusOf(d))}
		if next != nil {
			nr := toDoseResponse(*next, svc.StatusOf(*next))
			resp.Next = &nr
		}
		if err != nil {
			// Falla parcial: la toma actual sí quedó confirmada.
			resp.NextError = err.Error()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		doseID := chi.URLParam(r, "doseID")
		if err := svc.Delete(r.Context(), claims.UserID, doseID); err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "dose not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// parseSchedule combina los dos campos del formulario en un instante.
// Se interpreta en hora local del server.
func parseSchedule(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, errors.New("scheduledDate and scheduledTime are required")
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, errors.New("scheduledDate must be YYYY-MM-DD and scheduledTime HH:MM")
	}
	return t, nil
}

func parseListInput(r *http.Request) (ListInput, error) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	in := ListInput{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return ListInput{}, errors.New("status must be upcoming|due|taken|missed")
		}
		in.Status = &st
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListInput{}, errors.New("from must be RFC3339")
		}
		in.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListInput{}, errors.New("to must be RFC3339")
		}
		in.To = &t
	}

	return in, nil
}

func toDoseResponse(d Dose, st Status) doseResponse {
	return doseResponse{
		ID:            d.ID,
		MedName:       d.MedName,
		Dosage:        d.Dosage,
		ScheduledTime: d.ScheduledAt,
		TrayLocation:  d.TrayLocation,
		Taken:         d.Taken,
		Missed:        d.Missed,
		CreatedAt:     d.CreatedAt,
		Status:        st,
	}
}

// writeJSON queda local al módulo a propósito; si otro módulo lo repite,
// recién ahí conviene extraerlo a un helper común.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
