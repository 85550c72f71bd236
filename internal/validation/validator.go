package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/response"
)

// Source names the part of the request a rule reads from.
type Source string

const (
	SourceBody   Source = "body"
	SourceQuery  Source = "query"
	SourceParams Source = "params"
)

// Rule is one field-level check. Field is a dotted path; "*" expands over
// every element of an array. Tag uses validator syntax.
type Rule struct {
	Source  Source
	Field   string
	Tag     string
	Message string
}

// RuleSet is the ordered list of checks for one operation.
type RuleSet []Rule

// Body, Query and Param build rules for the respective request parts.
func Body(field, tag, message string) Rule {
	return Rule{Source: SourceBody, Field: field, Tag: tag, Message: message}
}

func Query(field, tag, message string) Rule {
	return Rule{Source: SourceQuery, Field: field, Tag: tag, Message: message}
}

func Param(field, tag, message string) Rule {
	return Rule{Source: SourceParams, Field: field, Tag: tag, Message: message}
}

// Validator evaluates rule sets. It is safe for concurrent use once built.
type Validator struct {
	validate *validator.Validate
}

var kenyanPhone = regexp.MustCompile(`^254[17]\d{8}$`)

// New builds a Validator with the storefront's custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "isint", isInt)
	mustRegister(v, "isfloat", isFloat)
	mustRegister(v, "nummin", numMin)
	mustRegister(v, "nummax", numMax)
	mustRegister(v, "array", isArray)
	mustRegister(v, "kephone", func(fl validator.FieldLevel) bool {
		s, ok := stringOf(fl.Field())
		return ok && kenyanPhone.MatchString(s)
	})
	mustRegister(v, "strongpw", strongPassword)
	return &Validator{validate: v}
}

var defaultValidator = New()

// Check runs every rule against payload and returns the failure messages in
// rule order. It does not stop at the first failing field.
func (v *Validator) Check(payload *Payload, rules ...RuleSet) []string {
	var messages []string
	for _, set := range rules {
		for _, rule := range set {
			if v.failed(payload, rule) {
				messages = append(messages, rule.Message)
			}
		}
	}
	return messages
}

func (v *Validator) failed(payload *Payload, rule Rule) bool {
	for _, value := range lookup(root(payload, rule.Source), rule.Field) {
		if err := v.check(value, rule.Tag); err != nil {
			return true
		}
	}
	return false
}

// check runs one tag against a value. validator panics when a length or
// oneof tag meets a kind it cannot measure (a JSON bool, say); that is a
// failed check, not a server fault.
func (v *Validator) check(value any, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation: %s: %v", tag, r)
		}
	}()
	return v.validate.Var(value, tag)
}

// Validate checks the request payload against rules and answers 400 with
// every failure message when any rule fails.
func Validate(rules ...RuleSet) fiber.Handler {
	return defaultValidator.Handler(rules...)
}

// Handler is Validate bound to this Validator.
func (v *Validator) Handler(rules ...RuleSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if messages := v.Check(PayloadFromContext(c), rules...); len(messages) > 0 {
			return response.ValidationError(c, messages)
		}
		return c.Next()
	}
}

func root(payload *Payload, source Source) any {
	if payload == nil {
		return nil
	}
	switch source {
	case SourceQuery:
		return stringMap(payload.Query)
	case SourceParams:
		return stringMap(payload.Params)
	default:
		return payload.Body
	}
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// lookup resolves a dotted path. A missing plain field yields a single nil so
// presence rules can fire; a wildcard over a non-array yields nothing.
func lookup(node any, path string) []any {
	if path == "" {
		return []any{node}
	}
	head, rest, _ := strings.Cut(path, ".")
	if head == "*" {
		items, ok := node.([]any)
		if !ok {
			return nil
		}
		var out []any
		for _, item := range items {
			out = append(out, lookup(item, rest)...)
		}
		return out
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return lookup(nil, rest)
	}
	return lookup(obj[head], rest)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// number reads JSON numbers, Go numerics and numeric strings alike.
func number(field reflect.Value) (float64, bool) {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(field.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(field.Uint()), true
	case reflect.Float32, reflect.Float64:
		return field.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(field.String()), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringOf(field reflect.Value) (string, bool) {
	if field.Kind() != reflect.String {
		return "", false
	}
	if n, ok := field.Interface().(json.Number); ok {
		return n.String(), true
	}
	return field.String(), true
}

func isInt(fl validator.FieldLevel) bool {
	f, ok := number(fl.Field())
	return ok && f == math.Trunc(f)
}

func isFloat(fl validator.FieldLevel) bool {
	_, ok := number(fl.Field())
	return ok
}

func numMin(fl validator.FieldLevel) bool {
	f, ok := number(fl.Field())
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	return ok && err == nil && f >= limit
}

func numMax(fl validator.FieldLevel) bool {
	f, ok := number(fl.Field())
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	return ok && err == nil && f <= limit
}

func isArray(fl validator.FieldLevel) bool {
	kind := fl.Field().Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func strongPassword(fl validator.FieldLevel) bool {
	s, ok := stringOf(fl.Field())
	if !ok {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
