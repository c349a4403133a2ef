// Package catalog holds the inventory records the assistant resolves spoken
// names against, plus the read and write contracts of the stores behind them.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Maintainer is a supplier or technician that services equipment.
type Maintainer struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Company        string `json:"company,omitempty" yaml:"company"`
	Email          string `json:"email,omitempty" yaml:"email"`
	Phone          string `json:"phone,omitempty" yaml:"phone"`
	Specialization string `json:"specialization,omitempty" yaml:"specialization"`
	Active         bool   `json:"active" yaml:"active"`
}

func (m Maintainer) DisplayName() string { return m.Name }

func (m Maintainer) AltFields() []string {
	return nonEmpty(m.Company, m.Specialization)
}

// Location is a place equipment can be installed in.
type Location struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Building string   `json:"building,omitempty" yaml:"building"`
	Floor    string   `json:"floor,omitempty" yaml:"floor"`
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms"`
	Active   bool     `json:"active" yaml:"active"`
}

func (l Location) DisplayName() string { return l.Name }

func (l Location) AltFields() []string {
	return nonEmpty(l.Synonyms...)
}

// Assignee is a person or team equipment is assigned to.
type Assignee struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department,omitempty" yaml:"department"`
	Active     bool   `json:"active" yaml:"active"`
}

func (a Assignee) DisplayName() string { return a.Name }

func (a Assignee) AltFields() []string {
	return nonEmpty(a.Department)
}

// Product is an inventoried piece of equipment.
type Product struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Category     string `json:"category,omitempty" yaml:"category"`
	Brand        string `json:"brand,omitempty" yaml:"brand"`
	Model        string `json:"model,omitempty" yaml:"model"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serial_number"`
	Barcode      string `json:"barcode,omitempty" yaml:"barcode"`
	LocationID   string `json:"locationId,omitempty" yaml:"location_id"`
	Active       bool   `json:"active" yaml:"active"`
}

func (p Product) DisplayName() string { return p.Name }

func (p Product) AltFields() []string {
	return nonEmpty(p.Model, p.SerialNumber)
}

// Reader lists the active records of each kind. Implementations return a
// recent snapshot; no transactional guarantee is made.
type Reader interface {
	ListMaintainers(ctx context.Context) ([]Maintainer, error)
	ListLocations(ctx context.Context) ([]Location, error)
	ListAssignees(ctx context.Context) ([]Assignee, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// Writer creates records discovered during a conversation.
type Writer interface {
	CreateMaintainer(ctx context.Context, m Maintainer) (string, error)
	CreateLocation(ctx context.Context, l Location) (string, error)
}

// Store is a catalog that can be both read and written.
type Store interface {
	Reader
	Writer
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
