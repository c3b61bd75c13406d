package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query :=
		`SELECT id, email, name FROM admins
		 WHERE email = $1
		 `

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&admin.ID, &admin.Email, &admin.Name)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return admin, nil
}

func (r *PostgresRepository) CreateProfessional(ctx context.Context, p *models.Professional) (*models.Professional, error) {

	query :=
		`INSERT INTO professionals (email, name, surname, phone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, p.Email, p.Name, p.Surname, p.Phone).Scan(&p.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetProfessional(ctx context.Context, id string) (*models.Professional, error) {
	query :=
		`SELECT id, email, name, surname, phone FROM professionals
		 WHERE id = $1
		 `
	return r.scanProfessional(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetProfessionalByEmail(ctx context.Context, email string) (*models.Professional, error) {
	query :=
		`SELECT id, email, name, surname, phone FROM professionals
		 WHERE email = $1
		 `
	return r.scanProfessional(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) scanProfessional(row *sql.Row) (*models.Professional, error) {
	p := &models.Professional{}
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Surname, &p.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListProfessionals(ctx context.Context) ([]*models.Professional, error) {
	query :=
		`SELECT id, email, name, surname, phone FROM professionals
		 ORDER BY name, surname
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Professional
	for rows.Next() {
		p := &models.Professional{}
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.Surname, &p.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) DeleteProfessional(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM professionals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreatePatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {

	query :=
		`INSERT INTO patients (professional_id, email, name, surname, phone, birth_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.ProfessionalID, p.Email, p.Name, p.Surname, p.Phone, p.BirthDate).Scan(&p.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	query :=
		`SELECT id, professional_id, email, name, surname, phone, birth_date FROM patients
		 WHERE id = $1
		 `
	return r.scanPatient(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	// Patients are nested under their owning professional; the join keeps
	// the lookup to rows whose owner still exists.
	query :=
		`SELECT p.id, p.professional_id, p.email, p.name, p.surname, p.phone, p.birth_date
		 FROM patients p
		 JOIN professionals pr ON pr.id = p.professional_id
		 WHERE p.email = $1
		 `
	return r.scanPatient(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) scanPatient(row *sql.Row) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(&p.ID, &p.ProfessionalID, &p.Email, &p.Name, &p.Surname, &p.Phone, &p.BirthDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListPatients(ctx context.Context, professionalID string) ([]*models.Patient, error) {
	query :=
		`SELECT id, professional_id, email, name, surname, phone, birth_date FROM patients
		 WHERE professional_id = $1
		 ORDER BY name, surname
		 `

	rows, err := r.db.QueryContext(ctx, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Patient
	for rows.Next() {
		p := &models.Patient{}
		if err := rows.Scan(&p.ID, &p.ProfessionalID, &p.Email, &p.Name, &p.Surname, &p.Phone, &p.BirthDate); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdatePatient(ctx context.Context, p *models.Patient) error {
	query :=
		`UPDATE patients SET email = $2, name = $3, surname = $4, phone = $5, birth_date = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.Name, p.Surname, p.Phone, p.BirthDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) DeletePatient(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
