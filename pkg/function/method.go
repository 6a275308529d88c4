package function

import (
	"encoding/json"
	"strings"
)

// MethodVariant discriminates the named HTTP method variants from the
// catch-all "other" variant that carries an arbitrary verb verbatim.
type MethodVariant uint8

const (
	MethodGet MethodVariant = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch
	MethodOther
)

// Method is a normalized HTTP method. It is a plain comparable struct so it
// can be embedded directly in a RouteKey and used as a map key: the variant
// tag makes two methods with the same textual verb but different variants
// distinct, which is what keeps a GET and an "other" variant spelled "GET"
// from colliding.
type Method struct {
	variant MethodVariant
	other   string
}

// NormalizeMethod maps a raw HTTP method string to its canonical variant.
// Recognized verbs are case-insensitive; anything else is retained verbatim
// as the other variant.
func NormalizeMethod(raw string) Method {
	switch strings.ToUpper(raw) {
	case "GET":
		return Method{variant: MethodGet}
	case "POST":
		return Method{variant: MethodPost}
	case "PUT":
		return Method{variant: MethodPut}
	case "DELETE":
		return Method{variant: MethodDelete}
	case "PATCH":
		return Method{variant: MethodPatch}
	default:
		return Method{variant: MethodOther, other: raw}
	}
}

// Variant reports which named variant this method normalized to.
func (m Method) Variant() MethodVariant {
	return m.variant
}

// String renders the method's canonical textual form.
func (m Method) String() string {
	switch m.variant {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodPatch:
		return "PATCH"
	default:
		return m.other
	}
}

// MarshalJSON renders the method's canonical textual form, the same shape
// NormalizeMethod accepts on the way in — so a Trigger round-trips through
// admin JSON without losing the field the Route Table keys on.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the same raw verb strings NormalizeMethod does.
func (m *Method) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = NormalizeMethod(raw)
	return nil
}
