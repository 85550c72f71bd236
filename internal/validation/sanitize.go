// Package validation holds the inbound-data stages of the request pipeline:
// script-tag sanitization followed by declarative per-operation rule sets.
package validation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const payloadKey = "validation_payload"

var scriptTag = regexp.MustCompile(`(?is)<script\b.*?</script>`)

// Payload is the sanitized view of a request's structured input.
type Payload struct {
	Body   any
	Query  map[string]string
	Params map[string]string
}

// SanitizeString removes script elements from s. Removal repeats until nothing
// matches, so nested fragments cannot reassemble into a new tag.
func SanitizeString(s string) string {
	for {
		cleaned := scriptTag.ReplaceAllString(s, "")
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}

// SanitizeValue walks maps and slices, cleaning string leaves in place. Other
// leaves are returned unchanged.
func SanitizeValue(v any) any {
	out, _ := sanitize(v)
	return out
}

func sanitize(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		cleaned := SanitizeString(val)
		return cleaned, cleaned != val
	case map[string]any:
		changed := false
		for k, item := range val {
			cleaned, dirty := sanitize(item)
			val[k] = cleaned
			changed = changed || dirty
		}
		return val, changed
	case []any:
		changed := false
		for i, item := range val {
			cleaned, dirty := sanitize(item)
			val[i] = cleaned
			changed = changed || dirty
		}
		return val, changed
	case map[string]string:
		changed := false
		for k, item := range val {
			cleaned := SanitizeString(item)
			val[k] = cleaned
			changed = changed || cleaned != item
		}
		return val, changed
	default:
		return v, false
	}
}

// Sanitize builds the request Payload, cleans it, writes the cleaned body and
// query back onto the request and stores the payload for later stages. It
// never rejects a request.
func Sanitize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := &Payload{
			Query:  cloneMap(c.Queries()),
			Params: cloneMap(c.AllParams()),
		}

		if body, ok := decodeJSON(c.Body()); ok {
			cleaned, changed := sanitize(body)
			payload.Body = cleaned
			if changed {
				if encoded, err := json.Marshal(cleaned); err == nil {
					c.Request().SetBody(encoded)
				}
			}
		}

		for k, v := range payload.Query {
			if cleaned := SanitizeString(v); cleaned != v {
				payload.Query[k] = cleaned
				c.Request().URI().QueryArgs().Set(k, cleaned)
			}
		}
		SanitizeValue(payload.Params)

		c.Locals(payloadKey, payload)
		return c.Next()
	}
}

// PayloadFromContext returns the payload stored by Sanitize, building an
// unsanitized one when the stage did not run. Route parameters are only known
// once a route matches, so they are read afresh (and cleaned) on every call.
func PayloadFromContext(c *fiber.Ctx) *Payload {
	params := cloneMap(c.AllParams())
	SanitizeValue(params)
	if payload, ok := c.Locals(payloadKey).(*Payload); ok && payload != nil {
		payload.Params = params
		return payload
	}
	payload := &Payload{Query: cloneMap(c.Queries()), Params: params}
	if body, ok := decodeJSON(c.Body()); ok {
		payload.Body = body
	}
	return payload
}

func decodeJSON(raw []byte) (any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, false
	}
	switch body.(type) {
	case map[string]any, []any:
		return body, true
	}
	return nil, false
}

// cloneMap copies fiber's request-buffer-backed strings so later writes to
// the request cannot alias them.
func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.Clone(k)] = strings.Clone(v)
	}
	return out
}
