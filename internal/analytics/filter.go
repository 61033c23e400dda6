package analytics

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// ErrInvalidFilter is matched by every *FilterError.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter restricts the dataset before aggregation. Dimensions are
// AND-combined and values within a dimension are OR-combined. An empty
// dimension places no restriction. Values match exactly.
type Filter struct {
	Accelerators []string           `json:"accelerators,omitempty" validate:"omitempty,max=500,dive,required,max=256"`
	States       []string           `json:"states,omitempty" validate:"omitempty,max=500,dive,required,max=256"`
	Sectors      []string           `json:"sectors,omitempty" validate:"omitempty,max=500,dive,required,max=256"`
	TRLBuckets   []domain.TRLBucket `json:"trl_buckets,omitempty" validate:"omitempty,dive,trl_bucket"`
}

// IsEmpty reports whether f places no restriction at all.
func (f Filter) IsEmpty() bool {
	return len(f.Accelerators) == 0 && len(f.States) == 0 && len(f.Sectors) == 0 && len(f.TRLBuckets) == 0
}

// Merge returns a filter that restricts by both f and other. A dimension
// set in both keeps the values of other.
func (f Filter) Merge(other Filter) Filter {
	out := f
	if len(other.Accelerators) > 0 {
		out.Accelerators = other.Accelerators
	}
	if len(other.States) > 0 {
		out.States = other.States
	}
	if len(other.Sectors) > 0 {
		out.Sectors = other.Sectors
	}
	if len(other.TRLBuckets) > 0 {
		out.TRLBuckets = other.TRLBuckets
	}
	return out
}

// Violation describes one rejected filter field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FilterError lists everything wrong with a filter.
type FilterError struct {
	Violations []Violation
}

func (e *FilterError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Message
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidFilter) match any FilterError.
func (e *FilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("trl_bucket", func(fl validator.FieldLevel) bool {
		return domain.TRLBucket(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks f against its field rules.
func (f Filter) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	fe := &FilterError{}
	for _, v := range verrs {
		fe.Violations = append(fe.Violations, Violation{
			Field:   v.Field(),
			Message: violationMessage(v),
		})
	}
	return fe
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not contain empty values", fe.Field())
	case "max":
		return fmt.Sprintf("%s exceeds the maximum of %s", fe.Field(), fe.Param())
	case "trl_bucket":
		return fmt.Sprintf("%s: unknown TRL bucket %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// allows reports whether v passes; a nil set allows everything.
func (s stringSet) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

type matcher struct {
	accelerators stringSet
	states       stringSet
	sectors      stringSet
	buckets      map[domain.TRLBucket]struct{}
}

func newMatcher(f Filter) matcher {
	m := matcher{
		accelerators: newStringSet(f.Accelerators),
		states:       newStringSet(f.States),
		sectors:      newStringSet(f.Sectors),
	}
	if len(f.TRLBuckets) > 0 {
		m.buckets = make(map[domain.TRLBucket]struct{}, len(f.TRLBuckets))
		for _, b := range f.TRLBuckets {
			m.buckets[b] = struct{}{}
		}
	}
	return m
}

func (m matcher) match(r *domain.StartupRecord) bool {
	if !m.accelerators.allows(r.Accelerator) || !m.states.allows(r.State) || !m.sectors.allows(r.Sector) {
		return false
	}
	if m.buckets != nil {
		if _, ok := m.buckets[r.TRLBucket]; !ok {
			return false
		}
	}
	return true
}
