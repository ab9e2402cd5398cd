package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"med-adherence-dashboard/internal/domain/doses"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

func (r *DosesRepo) Create(ctx context.Context, d doses.Dose) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO doses (
			id, owner_user_id,
			med_name, dosage, tray_location,
			scheduled_time,
			taken, missed,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		d.ID,
		d.OwnerUserID,
		d.MedName,
		d.Dosage,
		d.TrayLocation,
		d.ScheduledAt,
		d.Taken,
		d.Missed,
		d.CreatedAt,
	)
	return err
}

func (r *DosesRepo) GetByID(ctx context.Context, ownerUserID, id string) (doses.Dose, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return doses.Dose{}, doses.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_user_id,
			med_name, dosage, tray_location,
			scheduled_time,
			taken, missed,
			created_at
		FROM doses
		WHERE owner_user_id = $1 AND id = $2
	`, ownerUserID, id)

	var d doses.Dose
	if err := row.Scan(
		&d.ID,
		&d.OwnerUserID,
		&d.MedName,
		&d.Dosage,
		&d.TrayLocation,
		&d.ScheduledAt,
		&d.Taken,
		&d.Missed,
		&d.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return doses.Dose{}, doses.ErrNotFound
		}
		return doses.Dose{}, err
	}

	return d, nil
}

func (r *DosesRepo) ListByOwner(ctx context.Context, ownerUserID string, filter doses.ListFilter) ([]doses.Dose, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, owner_user_id,
			med_name, dosage, tray_location,
			scheduled_time,
			taken, missed,
			created_at
		FROM doses
		WHERE owner_user_id = $1
	`)

	args := []any{ownerUserID}
	argN := 2

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	sb.WriteString(" ORDER BY scheduled_time ASC")

	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.Dose, 0)
	for rows.Next() {
		var d doses.Dose
		if err := rows.Scan(
			&d.ID,
			&d.OwnerUserID,
			&d.MedName,
			&d.Dosage,
			&d.TrayLocation,
			&d.ScheduledAt,
			&d.Taken,
			&d.Missed,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

// MarkTaken es el compare-and-swap: solo flipea tomas con taken=false.
// RowsAffected=0 con la fila existente significa que otra invocación ganó.
func (r *DosesRepo) MarkTaken(ctx context.Context, ownerUserID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doses
		SET taken = true, missed = false
		WHERE owner_user_id = $1 AND id = $2 AND taken = false
	`, ownerUserID, id)
	if err != nil {
		return false, err
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}

	// Distinguir "ya estaba taken" de "no existe"
	row := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM doses WHERE owner_user_id = $1 AND id = $2
	`, ownerUserID, id)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, doses.ErrNotFound
		}
		return false, err
	}
	return false, nil
}

func (r *DosesRepo) MarkMissed(ctx context.Context, ownerUserID, id string) error {
	// El WHERE garantiza que nunca se escribe taken=true AND missed=true.
	_, err := r.db.ExecContext(ctx, `
		UPDATE doses
		SET missed = true
		WHERE owner_user_id = $1 AND id = $2 AND taken = false AND missed = false
	`, ownerUserID, id)
	return err
}

func (r *DosesRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]doses.Dose, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id,
			med_name, dosage, tray_location,
			scheduled_time,
			taken, missed,
			created_at
		FROM doses
		WHERE taken = false AND missed = false AND scheduled_time < $1
		ORDER BY scheduled_time ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.Dose, 0)
	for rows.Next() {
		var d doses.Dose
		if err := rows.Scan(
			&d.ID,
			&d.OwnerUserID,
			&d.MedName,
			&d.Dosage,
			&d.TrayLocation,
			&d.ScheduledAt,
			&d.Taken,
			&d.Missed,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

func (r *DosesRepo) Delete(ctx context.Context, ownerUserID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM doses
		WHERE owner_user_id = $1 AND id = $2
	`, ownerUserID, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return doses.ErrNotFound
	}
	return nil
}
