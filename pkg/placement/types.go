// Package placement holds the domain model for resource provider
// inventories: record types, the resource class vocabulary, and the CLI
// argument parser that turns CLASS[:FIELD]=VALUE tokens into structured
// requests.
package placement

import (
	"fmt"
	"strconv"
	"strings"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
)

// Inventory field names accepted in CLASS:FIELD=VALUE tokens.
const (
	FieldTotal           = "total"
	FieldReserved        = "reserved"
	FieldMinUnit         = "min_unit"
	FieldMaxUnit         = "max_unit"
	FieldStepSize        = "step_size"
	FieldAllocationRatio = "allocation_ratio"
)

// Server-side defaults applied to fields left unspecified in a set request.
const (
	DefaultReserved        = int64(0)
	DefaultMinUnit         = int64(1)
	DefaultMaxUnit         = int64(2147483647)
	DefaultStepSize        = int64(1)
	DefaultAllocationRatio = float64(1.0)
)

// Inventory is one resource class's capacity parameters on a provider.
// All fields are concrete; this is the shape the service stores and returns.
type Inventory struct {
	Total           int64   `json:"total" yaml:"total"`
	Reserved        int64   `json:"reserved" yaml:"reserved"`
	MinUnit         int64   `json:"min_unit" yaml:"min_unit"`
	MaxUnit         int64   `json:"max_unit" yaml:"max_unit"`
	StepSize        int64   `json:"step_size" yaml:"step_size"`
	AllocationRatio float64 `json:"allocation_ratio" yaml:"allocation_ratio"`
}

// Validate enforces the record invariants.
func (inv Inventory) Validate() error {
	if inv.Total < 1 {
		return fmt.Errorf("total must be >= 1, got %d", inv.Total)
	}
	if inv.MinUnit > inv.MaxUnit {
		return fmt.Errorf("min_unit %d must not exceed max_unit %d", inv.MinUnit, inv.MaxUnit)
	}
	if inv.StepSize < 1 {
		return fmt.Errorf("step_size must be >= 1, got %d", inv.StepSize)
	}
	if inv.AllocationRatio <= 0 {
		return fmt.Errorf("allocation_ratio must be > 0, got %v", inv.AllocationRatio)
	}
	return nil
}

// DefaultInventory returns an Inventory with every optional field at its
// server-side default. Total has no default; a usable record needs one.
func DefaultInventory() Inventory {
	return Inventory{
		Reserved:        DefaultReserved,
		MinUnit:         DefaultMinUnit,
		MaxUnit:         DefaultMaxUnit,
		StepSize:        DefaultStepSize,
		AllocationRatio: DefaultAllocationRatio,
	}
}

// InventoryUpdate is a partial field assignment for one resource class.
// Nil fields were not specified by the caller.
type InventoryUpdate struct {
	Total           *int64   `json:"total,omitempty" yaml:"total,omitempty"`
	Reserved        *int64   `json:"reserved,omitempty" yaml:"reserved,omitempty"`
	MinUnit         *int64   `json:"min_unit,omitempty" yaml:"min_unit,omitempty"`
	MaxUnit         *int64   `json:"max_unit,omitempty" yaml:"max_unit,omitempty"`
	StepSize        *int64   `json:"step_size,omitempty" yaml:"step_size,omitempty"`
	AllocationRatio *float64 `json:"allocation_ratio,omitempty" yaml:"allocation_ratio,omitempty"`
}

// HasTotal reports whether the update carries an explicit total.
func (u InventoryUpdate) HasTotal() bool { return u.Total != nil }

// ApplyTo merges the explicitly assigned fields onto base and returns the
// result. Unassigned fields keep the base values.
func (u InventoryUpdate) ApplyTo(base Inventory) Inventory {
	out := base
	if u.Total != nil {
		out.Total = *u.Total
	}
	if u.Reserved != nil {
		out.Reserved = *u.Reserved
	}
	if u.MinUnit != nil {
		out.MinUnit = *u.MinUnit
	}
	if u.MaxUnit != nil {
		out.MaxUnit = *u.MaxUnit
	}
	if u.StepSize != nil {
		out.StepSize = *u.StepSize
	}
	if u.AllocationRatio != nil {
		out.AllocationRatio = *u.AllocationRatio
	}
	return out
}

// setField assigns one named field from its string value, applying the type
// rules: allocation_ratio is a float, everything else an integer.
func (u *InventoryUpdate) setField(field, value string) error {
	if field == FieldAllocationRatio {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
				"invalid value %q for field %q: must be a number", value, field)
		}
		u.AllocationRatio = &f
		return nil
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
			"invalid value %q for field %q: must be an integer", value, field)
	}
	switch field {
	case FieldTotal:
		u.Total = &n
	case FieldReserved:
		u.Reserved = &n
	case FieldMinUnit:
		u.MinUnit = &n
	case FieldMaxUnit:
		u.MaxUnit = &n
	case FieldStepSize:
		u.StepSize = &n
	default:
		return placementerrors.Newf(placementerrors.ErrCodeUnknownInventoryField,
			"Unknown inventory field '%s'", field)
	}
	return nil
}

// Record is an inventory row as emitted by the CLI: the stored inventory
// plus the synthetic resource_class key, and for aggregate operations the
// owning resource_provider.
type Record struct {
	ResourceClass    string `json:"resource_class" yaml:"resource_class"`
	Inventory        `yaml:",inline"`
	ResourceProvider string `json:"resource_provider,omitempty" yaml:"resource_provider,omitempty"`
}

// TableHeader returns the column layout for a single inventory row.
func (r Record) TableHeader() []string { return RecordList{r}.TableHeader() }

// TableRows renders the single row, keeping int and float values in their
// native shape.
func (r Record) TableRows() [][]string { return RecordList{r}.TableRows() }

// RecordList is an ordered set of inventory rows.
type RecordList []Record

// TableHeader returns the column names for tabular output. The
// resource_provider column is only present when at least one row carries it.
func (l RecordList) TableHeader() []string {
	header := []string{
		"resource_class", "total", "reserved",
		"min_unit", "max_unit", "step_size", "allocation_ratio",
	}
	for _, r := range l {
		if r.ResourceProvider != "" {
			return append(header, "resource_provider")
		}
	}
	return header
}

// TableRows renders the rows in header order, preserving int vs. float
// formatting of the underlying values.
func (l RecordList) TableRows() [][]string {
	withProvider := len(l.TableHeader()) == 8
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		row := []string{
			r.ResourceClass,
			strconv.FormatInt(r.Total, 10),
			strconv.FormatInt(r.Reserved, 10),
			strconv.FormatInt(r.MinUnit, 10),
			strconv.FormatInt(r.MaxUnit, 10),
			strconv.FormatInt(r.StepSize, 10),
			FormatRatio(r.AllocationRatio),
		}
		if withProvider {
			row = append(row, r.ResourceProvider)
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatRatio renders an allocation ratio so that whole numbers still read
// as floats (16 -> "16.0"), keeping the int/float distinction visible.
func FormatRatio(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ResourceProvider is a capacity-providing entity known to the service.
type ResourceProvider struct {
	UUID       string `json:"uuid" yaml:"uuid"`
	Name       string `json:"name" yaml:"name"`
	Generation int64  `json:"generation" yaml:"generation"`
}

// Allocation is one consumer claim against a single provider.
type Allocation struct {
	ProviderUUID string           `json:"-" yaml:"-"`
	Resources    map[string]int64 `json:"resources" yaml:"resources"`
}

// ParseAllocationArg parses an "rp=UUID,CLASS=AMOUNT[,CLASS=AMOUNT...]"
// allocation argument.
func ParseAllocationArg(arg string) (Allocation, error) {
	alloc := Allocation{Resources: map[string]int64{}}
	for _, part := range strings.Split(arg, ",") {
		name, value, found := strings.Cut(part, "=")
		if !found || name == "" || value == "" {
			return Allocation{}, placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
				"invalid allocation %q: parts must have \"name=value\"", arg)
		}
		if name == "rp" {
			alloc.ProviderUUID = value
			continue
		}
		amount, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Allocation{}, placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
				"invalid allocation amount %q for class %q", value, name)
		}
		alloc.Resources[name] = amount
	}
	if alloc.ProviderUUID == "" {
		return Allocation{}, placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
			"invalid allocation %q: missing rp=UUID", arg)
	}
	if len(alloc.Resources) == 0 {
		return Allocation{}, placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
			"invalid allocation %q: no resources given", arg)
	}
	return alloc, nil
}
