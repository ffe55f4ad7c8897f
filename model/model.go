// Package model contains core data types for the project.
package model

// Record is a single item returned by the SonarQube web service: a rule, a
// metric definition or a resource. The service is schemaless, so a Record
// keeps every field the server sent and only exposes typed accessors for
// the handful of fields this client relies on. Unknown fields survive a
// decode/encode round trip untouched.
type Record map[string]any

// Key returns the record's "key" field, used as the identity of rules and
// resources. Empty string when absent.
func (r Record) Key() string { return r.Str("key") }

// Str returns the named field as a string, or "" when the field is absent
// or not a string.
func (r Record) Str(name string) string {
	v, _ := r[name].(string)
	return v
}

// Measures returns the record's "msr" list (resource measurements). The
// returned slice aliases the record; nil when absent.
func (r Record) Measures() []any {
	v, _ := r["msr"].([]any)
	return v
}

// SetMeasures replaces the record's "msr" list.
func (r Record) SetMeasures(msr []any) {
	r["msr"] = msr
}

// Params returns the record's "params" list as records. Rules created from
// a template carry their template parameters here; built-in rules usually
// have an empty list.
func (r Record) Params() []Record {
	raw, _ := r["params"].([]any)
	if len(raw) == 0 {
		return nil
	}
	params := make([]Record, 0, len(raw))
	for _, p := range raw {
		if m, ok := p.(map[string]any); ok {
			params = append(params, Record(m))
		}
	}
	return params
}

// ParamDefault returns the defaultValue of the named entry in the record's
// "params" list, or "" when no such parameter exists.
func (r Record) ParamDefault(key string) string {
	for _, p := range r.Params() {
		if p.Key() == key {
			return p.Str("defaultValue")
		}
	}
	return ""
}
