package negotiate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
)

// ErrAmbiguousValidator is returned when more than one TypedValidator is
// registered for the same request type.
var ErrAmbiguousValidator = errors.New("ambiguous validator")

// SelfValidator is implemented by request types that validate themselves.
type SelfValidator interface {
	Validate() error
}

// Validator validates any request.
type Validator interface {
	Validate(req any) error
}

// TypedValidator validates values of one request type and reports every
// failing field.
type TypedValidator[T any] interface {
	Validate(ctx context.Context, v *T) []ValidationError
}

// ValidatorFunc adapts a function to TypedValidator.
type ValidatorFunc[T any] func(ctx context.Context, v *T) []ValidationError

// Validate calls f.
func (f ValidatorFunc[T]) Validate(ctx context.Context, v *T) []ValidationError { return f(ctx, v) }

// RegisterValidator adds a validator for request type T. Handlers and Bind
// look validators up by type; registering two for the same type makes the
// lookup fail with ErrAmbiguousValidator.
func RegisterValidator[T any](r *Router, v TypedValidator[T]) {
	r.validators.add(v)
}

// validatorLocator finds the TypedValidator for a type. Lookups are cached
// per type; registration clears the cache.
type validatorLocator struct {
	mu         sync.RWMutex
	validators []any
	found      sync.Map // reflect.Type -> locatedValidator
}

type locatedValidator struct {
	v   any
	err error
}

func (l *validatorLocator) add(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.validators = append(l.validators, v)
	l.found.Clear()
}

func locateValidator[T any](l *validatorLocator) (TypedValidator[T], error) {
	typ := reflect.TypeFor[T]()
	if cached, ok := l.found.Load(typ); ok {
		lv := cached.(locatedValidator) //nolint:forcetypeassert // only locatedValidator is stored
		if lv.v == nil {
			return nil, lv.err
		}
		return lv.v.(TypedValidator[T]), lv.err //nolint:forcetypeassert // stored for typ only
	}

	// Held until the result is cached, so add cannot clear the cache in
	// between and leave a stale entry behind.
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matches []TypedValidator[T]
	for _, v := range l.validators {
		if tv, ok := v.(TypedValidator[T]); ok {
			matches = append(matches, tv)
		}
	}

	var lv locatedValidator
	switch len(matches) {
	case 0:
	case 1:
		lv.v = matches[0]
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = fmt.Sprintf("%T", m)
		}
		lv.err = fmt.Errorf("%w for type %s: %s", ErrAmbiguousValidator, typ, strings.Join(names, ", "))
	}
	l.found.Store(typ, lv)

	if lv.v == nil {
		return nil, lv.err
	}
	return matches[0], nil
}

// BindResult is the outcome of Bind: the decoded model and any validation
// failures reported by its TypedValidator.
type BindResult[T any] struct {
	Data   *T
	Errors []ValidationError
}

// IsValid reports whether validation found no errors.
func (b BindResult[T]) IsValid() bool { return len(b.Errors) == 0 }

// Problem returns a 422 problem listing the validation errors.
func (b BindResult[T]) Problem() *ProblemDetail {
	return &ProblemDetail{
		Type:   "about:blank",
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Detail: fmt.Sprintf("%d validation error(s)", len(b.Errors)),
		Errors: b.Errors,
	}
}

// Bind decodes the request into a T, binding path, query and header tags
// and decoding the body by its Content-Type, then runs the TypedValidator
// registered for T, if any. Decoding and lookup failures are returned as
// errors carrying a status; validation failures are reported in the result.
func Bind[T any](r *Router, req *http.Request) (BindResult[T], error) {
	data, err := decodeRequest[T](req, r.decoders)
	if err != nil {
		return BindResult[T]{}, WrapError(bindStatus(err), err)
	}

	v, err := locateValidator[T](r.validators)
	if err != nil {
		return BindResult[T]{}, err
	}

	res := BindResult[T]{Data: data}
	if v != nil {
		res.Errors = v.Validate(req.Context(), data)
	}
	return res, nil
}
