package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"inventory-voice-assistant/internal/db"
)

// Postgres stores the catalog in PostgreSQL.
type Postgres struct {
	db *db.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a catalog over an open, migrated database.
func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{db: database}
}

func (p *Postgres) ListMaintainers(ctx context.Context) ([]Maintainer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, company, email, phone, specialization
		FROM maintainers
		WHERE active
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintainers: %w", err)
	}
	defer rows.Close()

	var out []Maintainer
	for rows.Next() {
		m := Maintainer{Active: true}
		if err := rows.Scan(&m.ID, &m.Name, &m.Company, &m.Email, &m.Phone, &m.Specialization); err != nil {
			return nil, fmt.Errorf("failed to scan maintainer: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, building, floor, synonyms
		FROM locations
		WHERE active
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		l := Location{Active: true}
		if err := rows.Scan(&l.ID, &l.Name, &l.Building, &l.Floor, pq.Array(&l.Synonyms)); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *Postgres) ListAssignees(ctx context.Context) ([]Assignee, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, department
		FROM assignees
		WHERE active
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	defer rows.Close()

	var out []Assignee
	for rows.Next() {
		a := Assignee{Active: true}
		if err := rows.Scan(&a.ID, &a.Name, &a.Department); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, category, brand, model, serial_number, barcode, location_id
		FROM products
		WHERE active
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		pr := Product{Active: true}
		var locationID sql.NullString
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Category, &pr.Brand, &pr.Model, &pr.SerialNumber, &pr.Barcode, &locationID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		pr.LocationID = locationID.String
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateMaintainer(ctx context.Context, m Maintainer) (string, error) {
	if m.Name == "" {
		return "", fmt.Errorf("maintainer name is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO maintainers (id, name, company, email, phone, specialization, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)`,
		m.ID, m.Name, m.Company, m.Email, m.Phone, m.Specialization)
	if err != nil {
		return "", fmt.Errorf("failed to create maintainer: %w", err)
	}
	return m.ID, nil
}

func (p *Postgres) CreateLocation(ctx context.Context, l Location) (string, error) {
	if l.Name == "" {
		return "", fmt.Errorf("location name is required")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	synonyms := l.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, building, floor, synonyms, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)`,
		l.ID, l.Name, l.Building, l.Floor, pq.Array(synonyms))
	if err != nil {
		return "", fmt.Errorf("failed to create location: %w", err)
	}
	return l.ID, nil
}
