package probe

import (
	"encoding/json"
	"strings"
)

// ExpectStatus fails unless the response carries one of the wanted status codes.
func ExpectStatus(resp *Response, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	if len(want) == 1 {
		return Failf("expected status %d, got %d", want[0], resp.StatusCode)
	}
	return Failf("expected status in %v, got %d", want, resp.StatusCode)
}

// ExpectContentType fails unless the Content-Type header contains want.
func ExpectContentType(resp *Response, want string) error {
	got := resp.ContentType()
	if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
		return Failf("expected content-type %q, got %q", want, got)
	}
	return nil
}

// ExpectBodyContains fails unless the body contains every marker,
// compared case-insensitively. The first absent marker is reported.
func ExpectBodyContains(resp *Response, markers ...string) error {
	body := strings.ToLower(string(resp.Body))
	for _, m := range markers {
		if !strings.Contains(body, strings.ToLower(m)) {
			return Failf("response body does not contain %q", m)
		}
	}
	return nil
}

// DecodeJSON parses the body as a JSON object.
func DecodeJSON(resp *Response) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, Failf("response body is not a JSON object: %v", err)
	}
	return data, nil
}

// RequireFields fails naming the first field absent from data.
func RequireFields(data map[string]any, fields ...string) error {
	for _, f := range fields {
		if _, ok := data[f]; !ok {
			return Failf("missing field %q", f)
		}
	}
	return nil
}

// ExpectString fails unless data[field] is the string want.
func ExpectString(data map[string]any, field, want string) error {
	v, ok := data[field]
	if !ok {
		return Failf("missing field %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return Failf("field %q: expected string, got %T", field, v)
	}
	if s != want {
		return Failf("field %q: expected %q, got %q", field, want, s)
	}
	return nil
}

// StringField returns data[field] as a string.
func StringField(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok {
		return "", Failf("missing field %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", Failf("field %q: expected string, got %T", field, v)
	}
	return s, nil
}

// ExpectList fails unless data[field] is a JSON array.
func ExpectList(data map[string]any, field string) error {
	v, ok := data[field]
	if !ok {
		return Failf("missing field %q", field)
	}
	if _, ok := v.([]any); !ok {
		return Failf("field %q: expected list, got %T", field, v)
	}
	return nil
}

// Object returns data[field] as a nested JSON object.
func Object(data map[string]any, field string) (map[string]any, error) {
	v, ok := data[field]
	if !ok {
		return nil, Failf("missing field %q", field)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, Failf("field %q: expected object, got %T", field, v)
	}
	return obj, nil
}
