package dialogue

import (
	"fmt"
	"strings"
	"time"
)

type TaskKind string

const (
	KindProduct     TaskKind = "product"
	KindMaintenance TaskKind = "maintenance"
	KindMaintainer  TaskKind = "maintainer"
)

// ParseTaskKind accepts the kind names used in task directives, English or
// Italian.
func ParseTaskKind(s string) (TaskKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product", "prodotto", "asset":
		return KindProduct, true
	case "maintenance", "manutenzione", "intervento":
		return KindMaintenance, true
	case "maintainer", "manutentore", "supplier", "fornitore":
		return KindMaintainer, true
	}
	return "", false
}

// Task is a multi-turn draft record: ProductCreation,
// MaintenanceRegistration or MaintainerCreation.
type Task interface {
	Kind() TaskKind
	StartedAt() time.Time
	// RequiredMissing lists mandatory fields that are still empty.
	RequiredMissing() []string
	// Fields returns the non-empty collected fields.
	Fields() map[string]string
	merge(fields map[string]string, overwrite bool) Task
}

// NewTask starts an empty task of the given kind.
func NewTask(kind TaskKind, startedAt time.Time) (Task, error) {
	switch kind {
	case KindProduct:
		return ProductCreation{Started: startedAt}, nil
	case KindMaintenance:
		return MaintenanceRegistration{Started: startedAt}, nil
	case KindMaintainer:
		return MaintainerCreation{Started: startedAt}, nil
	}
	return nil, fmt.Errorf("unknown task kind %q", kind)
}

// IsComplete reports whether every required field of t is set.
func IsComplete(t Task) bool {
	return t != nil && len(t.RequiredMissing()) == 0
}

// Merge folds newly extracted fields into t. Existing values survive unless
// overwrite is set; empty values and unknown keys are ignored.
func Merge(t Task, fields map[string]string, overwrite bool) Task {
	if t == nil {
		return nil
	}
	return t.merge(fields, overwrite)
}

// Summary renders the collected fields for prompts and replies.
func Summary(t Task) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(t.Kind()))
	fields := t.Fields()
	if len(fields) == 0 {
		b.WriteString(": nothing collected yet")
		return b.String()
	}
	b.WriteString(":")
	for _, key := range orderOf(t) {
		if v, ok := fields[key]; ok {
			fmt.Fprintf(&b, " %s=%q", key, v)
		}
	}
	return b.String()
}

type slot struct {
	key      string
	value    *string
	required bool
	// link is the catalog id resolved for this value, cleared when the
	// value changes without a new id.
	linkKey string
	link    *string
}

// ProductCreation collects a new inventory item.
type ProductCreation struct {
	Name         string    `json:"name,omitempty"`
	Category     string    `json:"category,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	SerialNumber string    `json:"serial_number,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Location     string    `json:"location,omitempty"`
	LocationID   string    `json:"location_id,omitempty"`
	Assignee     string    `json:"assignee,omitempty"`
	AssigneeID   string    `json:"assignee_id,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Started      time.Time `json:"started_at"`
}

func (t *ProductCreation) slots() []slot {
	return []slot{
		{key: "name", value: &t.Name, required: true},
		{key: "category", value: &t.Category, required: true},
		{key: "brand", value: &t.Brand},
		{key: "model", value: &t.Model},
		{key: "serial_number", value: &t.SerialNumber},
		{key: "barcode", value: &t.Barcode},
		{key: "location", value: &t.Location, required: true, linkKey: "location_id", link: &t.LocationID},
		{key: "location_id", value: &t.LocationID},
		{key: "assignee", value: &t.Assignee, linkKey: "assignee_id", link: &t.AssigneeID},
		{key: "assignee_id", value: &t.AssigneeID},
		{key: "notes", value: &t.Notes},
	}
}

func (t ProductCreation) Kind() TaskKind { return KindProduct }
func (t ProductCreation) StartedAt() time.Time { return t.Started }
func (t ProductCreation) RequiredMissing() []string { return missing(t.slots()) }
func (t ProductCreation) Fields() map[string]string { return collected(t.slots()) }

func (t ProductCreation) merge(fields map[string]string, overwrite bool) Task {
	mergeSlots(t.slots(), fields, overwrite)
	return t
}

// MaintenanceRegistration collects a maintenance event on an existing product.
type MaintenanceRegistration struct {
	Product      string    `json:"product,omitempty"`
	ProductID    string    `json:"product_id,omitempty"`
	Type         string    `json:"type,omitempty"`
	Description  string    `json:"description,omitempty"`
	Maintainer   string    `json:"maintainer,omitempty"`
	MaintainerID string    `json:"maintainer_id,omitempty"`
	Date         string    `json:"date,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	Cost         string    `json:"cost,omitempty"`
	Started      time.Time `json:"started_at"`
}

func (t *MaintenanceRegistration) slots() []slot {
	return []slot{
		{key: "product", value: &t.Product, required: true, linkKey: "product_id", link: &t.ProductID},
		{key: "product_id", value: &t.ProductID},
		{key: "type", value: &t.Type, required: true},
		{key: "description", value: &t.Description, required: true},
		{key: "maintainer", value: &t.Maintainer, linkKey: "maintainer_id", link: &t.MaintainerID},
		{key: "maintainer_id", value: &t.MaintainerID},
		{key: "date", value: &t.Date},
		{key: "duration", value: &t.Duration},
		{key: "cost", value: &t.Cost},
	}
}

func (t MaintenanceRegistration) Kind() TaskKind { return KindMaintenance }
func (t MaintenanceRegistration) StartedAt() time.Time { return t.Started }
func (t MaintenanceRegistration) RequiredMissing() []string { return missing(t.slots()) }
func (t MaintenanceRegistration) Fields() map[string]string { return collected(t.slots()) }

func (t MaintenanceRegistration) merge(fields map[string]string, overwrite bool) Task {
	mergeSlots(t.slots(), fields, overwrite)
	return t
}

// MaintainerCreation collects a new supplier or technician. One of email or
// phone is required; it is reported missing as "contact".
type MaintainerCreation struct {
	Name           string    `json:"name,omitempty"`
	Company        string    `json:"company,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Started        time.Time `json:"started_at"`
}

func (t *MaintainerCreation) slots() []slot {
	return []slot{
		{key: "name", value: &t.Name, required: true},
		{key: "company", value: &t.Company},
		{key: "email", value: &t.Email},
		{key: "phone", value: &t.Phone},
		{key: "specialization", value: &t.Specialization},
	}
}

func (t MaintainerCreation) Kind() TaskKind { return KindMaintainer }
func (t MaintainerCreation) StartedAt() time.Time { return t.Started }
func (t MaintainerCreation) Fields() map[string]string { return collected(t.slots()) }

func (t MaintainerCreation) RequiredMissing() []string {
	out := missing(t.slots())
	if t.Email == "" && t.Phone == "" {
		out = append(out, "contact")
	}
	return out
}

func (t MaintainerCreation) merge(fields map[string]string, overwrite bool) Task {
	mergeSlots(t.slots(), fields, overwrite)
	return t
}

var fieldAliases = map[string]string{
	"supplier":    "maintainer",
	"supplier_id": "maintainer_id",
	"technician":  "maintainer",
	"serial":      "serial_number",
	"room":        "location",
	"maintenance": "type",
	"minutes":     "duration",
	"specialty":   "specialization",
	"telephone":   "phone",
	"mail":        "email",
}

// CanonicalFields trims keys and values and applies the field aliases. A
// canonical key wins over an alias that maps onto it.
func CanonicalFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(k))
		if alias, ok := fieldAliases[key]; ok {
			if _, taken := out[alias]; !taken {
				out[alias] = v
			}
			continue
		}
		out[key] = v
	}
	return out
}

func mergeSlots(slots []slot, fields map[string]string, overwrite bool) {
	fields = CanonicalFields(fields)
	for key, v := range fields {
		for _, s := range slots {
			if s.key != key || (*s.value != "" && !overwrite) {
				continue
			}
			if s.link != nil && *s.value != v {
				if _, ok := fields[s.linkKey]; !ok {
					*s.link = ""
				}
			}
			*s.value = v
		}
	}
}

func missing(slots []slot) []string {
	var out []string
	for _, s := range slots {
		if s.required && *s.value == "" {
			out = append(out, s.key)
		}
	}
	return out
}

func collected(slots []slot) map[string]string {
	out := make(map[string]string)
	for _, s := range slots {
		if *s.value != "" {
			out[s.key] = *s.value
		}
	}
	return out
}

func orderOf(t Task) []string {
	var slots []slot
	switch v := t.(type) {
	case ProductCreation:
		slots = v.slots()
	case MaintenanceRegistration:
		slots = v.slots()
	case MaintainerCreation:
		slots = v.slots()
	}
	keys := make([]string, len(slots))
	for i, s := range slots {
		keys[i] = s.key
	}
	return keys
}
