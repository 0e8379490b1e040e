package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/OldStager01/healthcare-records/pkg/database"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDuplicatePatient = errors.New("patient id already exists")
)

const patientColumns = `id, gender, age, hypertension, heart_disease, ever_married, work_type,
	residence_type, avg_glucose_level, bmi, smoking_status, stroke,
	COALESCE(created_by, ''), COALESCE(updated_by, ''), created_at, updated_at`

type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// buildWhere turns a filter into a WHERE clause. A numeric query matches the
// patient id exactly; anything else is a case-insensitive substring match on
// gender, work type and smoking status.
func buildWhere(f models.PatientFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		if id, err := strconv.Atoi(q); err == nil {
			conds = append(conds, "id = "+next(id))
		} else {
			p := next("%" + escapeLike(q) + "%")
			conds = append(conds, fmt.Sprintf(
				"(gender ILIKE %[1]s OR work_type ILIKE %[1]s OR smoking_status ILIKE %[1]s)", p))
		}
	}

	if f.Stroke != nil {
		conds = append(conds, "stroke = "+next(*f.Stroke))
	}

	if f.Gender != "" {
		conds = append(conds, "gender = "+next(f.Gender))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *PatientRepository) Search(ctx context.Context, f models.PatientFilter) (*models.PatientPage, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	limitArgs := append(args, f.PerPage, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY id LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)+1, len(args)+2)

	patients, err := r.queryPatients(ctx, query, limitArgs...)
	if err != nil {
		return nil, err
	}

	return &models.PatientPage{
		Patients:   patients,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalCount: total,
		TotalPages: models.TotalPages(total, f.PerPage),
	}, nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id int) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	return p, err
}

func (r *PatientRepository) Create(ctx context.Context, p *models.Patient) error {
	query := `
		INSERT INTO patients (id, gender, age, hypertension, heart_disease, ever_married, work_type,
			residence_type, avg_glucose_level, bmi, smoking_status, stroke, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Gender,
		p.Age,
		p.Hypertension,
		p.HeartDisease,
		p.EverMarried,
		p.WorkType,
		p.ResidenceType,
		p.AvgGlucoseLevel,
		p.BMI,
		p.SmokingStatus,
		p.Stroke,
		p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicatePatient
	}
	return err
}

func (r *PatientRepository) Update(ctx context.Context, p *models.Patient) error {
	query := `
		UPDATE patients
		SET gender = $2, age = $3, hypertension = $4, heart_disease = $5, ever_married = $6,
			work_type = $7, residence_type = $8, avg_glucose_level = $9, bmi = $10,
			smoking_status = $11, stroke = $12, updated_by = NULLIF($13, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Gender,
		p.Age,
		p.Hypertension,
		p.HeartDisease,
		p.EverMarried,
		p.WorkType,
		p.ResidenceType,
		p.AvgGlucoseLevel,
		p.BMI,
		p.SmokingStatus,
		p.Stroke,
		p.UpdatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrPatientNotFound
	}
	return err
}

func (r *PatientRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPatientNotFound
	}

	return nil
}

func (r *PatientRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count)
	return count, err
}

// Stats returns the dashboard totals. AvgAge is rounded to one decimal.
func (r *PatientRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stroke = 1),
			COALESCE(ROUND(AVG(age)::numeric, 1), 0)::float8
		FROM patients`

	var stats models.DashboardStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalPatients, &stats.StrokeCases, &stats.AvgAge)
	if err != nil {
		return nil, err
	}

	stats.NoStrokeCases = stats.TotalPatients - stats.StrokeCases
	return &stats, nil
}

func (r *PatientRepository) Recent(ctx context.Context, limit int) ([]*models.Patient, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.queryPatients(ctx, query, limit)
}

func (r *PatientRepository) Analytics(ctx context.Context) (*models.Analytics, error) {
	var (
		out models.Analytics
		err error
	)

	out.GenderDistribution, err = r.genderDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("gender distribution: %w", err)
	}

	out.AgeGroups, err = r.ageGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("age groups: %w", err)
	}

	out.HealthCorrelation, err = r.healthCorrelation(ctx)
	if err != nil {
		return nil, fmt.Errorf("health correlation: %w", err)
	}

	out.SmokingStroke, err = r.smokingStroke(ctx)
	if err != nil {
		return nil, fmt.Errorf("smoking stroke: %w", err)
	}

	return &out, nil
}

func (r *PatientRepository) genderDistribution(ctx context.Context) ([]models.CountBucket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT gender, COUNT(*) FROM patients GROUP BY gender ORDER BY gender`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.CountBucket{}
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// ageGroups buckets patients by AgeGroupBoundaries. Ages outside the last
// boundary land in AgeGroupOther.
func (r *PatientRepository) ageGroups(ctx context.Context) ([]models.StrokeBucket, error) {
	bounds := models.AgeGroupBoundaries

	var cases strings.Builder
	for i := 0; i < len(bounds)-1; i++ {
		fmt.Fprintf(&cases, " WHEN age >= %g AND age < %g THEN '%s'", bounds[i], bounds[i+1], models.AgeGroupLabel(i))
	}

	query := fmt.Sprintf(`
		SELECT bucket, COUNT(*), COALESCE(SUM(stroke), 0)
		FROM (SELECT CASE%s ELSE '%s' END AS bucket, stroke FROM patients) b
		GROUP BY bucket`, cases.String(), models.AgeGroupOther)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]models.StrokeBucket)
	for rows.Next() {
		var b models.StrokeBucket
		if err := rows.Scan(&b.Key, &b.Count, &b.StrokeCount); err != nil {
			return nil, err
		}
		found[b.Key] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Emit buckets in boundary order; empty ones are omitted.
	buckets := []models.StrokeBucket{}
	for i := 0; i < len(bounds)-1; i++ {
		if b, ok := found[models.AgeGroupLabel(i)]; ok {
			buckets = append(buckets, b)
		}
	}
	if b, ok := found[models.AgeGroupOther]; ok {
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (r *PatientRepository) healthCorrelation(ctx context.Context) ([]models.HealthCorrelation, error) {
	query := `
		SELECT hypertension, heart_disease, COUNT(*), COALESCE(SUM(stroke), 0)
		FROM patients
		GROUP BY hypertension, heart_disease
		ORDER BY hypertension, heart_disease`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.HealthCorrelation{}
	for rows.Next() {
		var h models.HealthCorrelation
		if err := rows.Scan(&h.Hypertension, &h.HeartDisease, &h.Count, &h.StrokeCount); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PatientRepository) smokingStroke(ctx context.Context) ([]models.StrokeBucket, error) {
	query := `
		SELECT smoking_status, COUNT(*), COALESCE(SUM(stroke), 0)
		FROM patients
		GROUP BY smoking_status
		ORDER BY smoking_status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.StrokeBucket{}
	for rows.Next() {
		var b models.StrokeBucket
		if err := rows.Scan(&b.Key, &b.Count, &b.StrokeCount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BulkInsert loads patients in a single COPY inside one transaction. Used by
// the dataset seeder; rows keep their original ids.
func (r *PatientRepository) BulkInsert(ctx context.Context, patients []*models.Patient, createdBy string) (int, error) {
	if len(patients) == 0 {
		return 0, nil
	}

	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("patients",
			"id", "gender", "age", "hypertension", "heart_disease", "ever_married", "work_type",
			"residence_type", "avg_glucose_level", "bmi", "smoking_status", "stroke", "created_by",
		))
		if err != nil {
			return fmt.Errorf("prepare copy: %w", err)
		}

		for _, p := range patients {
			if _, err := stmt.ExecContext(ctx,
				p.ID, p.Gender, p.Age, p.Hypertension, p.HeartDisease, p.EverMarried, p.WorkType,
				p.ResidenceType, p.AvgGlucoseLevel, p.BMI, p.SmokingStatus, p.Stroke, createdBy,
			); err != nil {
				stmt.Close()
				return fmt.Errorf("copy patient %d: %w", p.ID, err)
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flush copy: %w", err)
		}
		return stmt.Close()
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicatePatient
		}
		return 0, err
	}

	return len(patients), nil
}

func (r *PatientRepository) queryPatients(ctx context.Context, query string, args ...interface{}) ([]*models.Patient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []*models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}

	return patients, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p   models.Patient
		bmi sql.NullFloat64
	)

	err := row.Scan(
		&p.ID,
		&p.Gender,
		&p.Age,
		&p.Hypertension,
		&p.HeartDisease,
		&p.EverMarried,
		&p.WorkType,
		&p.ResidenceType,
		&p.AvgGlucoseLevel,
		&bmi,
		&p.SmokingStatus,
		&p.Stroke,
		&p.CreatedBy,
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bmi.Valid {
		p.BMI = &bmi.Float64
	}
	return &p, nil
}
