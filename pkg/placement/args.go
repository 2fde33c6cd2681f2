package placement

import (
	"strings"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
)

var knownFields = map[string]struct{}{
	FieldTotal:           {},
	FieldReserved:        {},
	FieldMinUnit:         {},
	FieldMaxUnit:         {},
	FieldStepSize:        {},
	FieldAllocationRatio: {},
}

// SetRequest is a parsed inventory set request: per-class field
// assignments, in first-appearance order.
type SetRequest struct {
	updates map[string]*InventoryUpdate
	order   []string
}

// Classes returns the resource classes in first-appearance order.
func (r *SetRequest) Classes() []string { return r.order }

// Update returns the field assignments for one class.
func (r *SetRequest) Update(class string) InventoryUpdate {
	if u, ok := r.updates[class]; ok {
		return *u
	}
	return InventoryUpdate{}
}

// Empty reports whether the request names no classes at all. Submitting an
// empty set clears the provider's inventory entirely.
func (r *SetRequest) Empty() bool { return len(r.order) == 0 }

// HasNonStandardClass reports whether any referenced class is outside the
// fixed standard vocabulary and therefore needs resolution against the
// service.
func (r *SetRequest) HasNonStandardClass() bool {
	std := NewVocabulary()
	for _, class := range r.order {
		if !std.Contains(class) {
			return true
		}
	}
	return false
}

// ValidateClass rejects a class not present in the vocabulary, suggesting
// a close match when one exists.
func ValidateClass(class string, vocab Vocabulary) error {
	if vocab.Contains(class) {
		return nil
	}
	msg := "Unknown resource class '" + class + "'"
	if hint := vocab.Suggest(class); hint != "" {
		msg += ", did you mean '" + hint + "'?"
	}
	return placementerrors.New(placementerrors.ErrCodeUnknownResourceClass, msg)
}

// ValidateClasses rejects the whole request if any referenced class is not
// in the vocabulary. No partial application: the first unknown class fails
// everything.
func (r *SetRequest) ValidateClasses(vocab Vocabulary) error {
	for _, class := range r.order {
		if err := ValidateClass(class, vocab); err != nil {
			return err
		}
	}
	return nil
}

// ParseInventoryTokens parses CLASS=VALUE and CLASS:FIELD=VALUE tokens into
// a SetRequest. A bare CLASS=VALUE assigns total. Syntax and field names
// are checked here; class names are validated separately via
// ValidateClasses once the vocabulary is known.
func ParseInventoryTokens(tokens []string) (*SetRequest, error) {
	req := &SetRequest{updates: map[string]*InventoryUpdate{}}

	for _, token := range tokens {
		if strings.Count(token, "=") != 1 {
			return nil, placementerrors.Newf(placementerrors.ErrCodeMalformedArgument,
				`resource argument %q must have "name=value" format`, token)
		}
		name, value, _ := strings.Cut(token, "=")
		if name == "" || value == "" {
			return nil, placementerrors.Newf(placementerrors.ErrCodeEmptyArgument,
				"resource argument %q name and value must be not empty", token)
		}

		class, field := name, FieldTotal
		if c, f, found := strings.Cut(name, ":"); found {
			class, field = c, f
			if class == "" || field == "" {
				return nil, placementerrors.Newf(placementerrors.ErrCodeEmptyArgument,
					"resource argument %q name and value must be not empty", token)
			}
			if _, ok := knownFields[field]; !ok {
				return nil, placementerrors.Newf(placementerrors.ErrCodeUnknownInventoryField,
					"Unknown inventory field '%s'", field)
			}
		}

		u, ok := req.updates[class]
		if !ok {
			u = &InventoryUpdate{}
			req.updates[class] = u
			req.order = append(req.order, class)
		}
		if err := u.setField(field, value); err != nil {
			return nil, err
		}
	}

	return req, nil
}
