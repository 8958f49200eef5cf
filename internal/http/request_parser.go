// This file implements utilities for parsing request data: month
// selectors and form or JSON bodies.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgettracker/internal/core"
)

// maxFormBody bounds request bodies read by RequestBodyParser.
const maxFormBody = 64 << 10

// ParseMonthNumber reads the dashboard's "month" parameter, a month of the
// current year from 1 to 12. Missing or out of range values give the
// current month.
func ParseMonthNumber(query url.Values) int {
	current := int(now().Month())
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return current
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > 12 {
		return current
	}
	return m
}

// ParseMonthParam reads a YYYY-MM value, defaulting to the current month
// when it is missing or malformed.
func ParseMonthParam(values url.Values, key string) core.Month {
	m, err := core.ParseMonth(values.Get(key))
	if err != nil {
		return core.MonthOf(now())
	}
	return m
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and stores it for subsequent
// parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBody+1))
	if p.err == nil && len(p.body) > maxFormBody {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxFormBody)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.isJSONContent() || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns a value without sanitizing; used for passwords, which
// are sent to the API exactly as typed.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// isJSONContent reports whether the Content-Type declares JSON.
func (p *RequestBodyParser) isJSONContent() bool {
	return strings.HasPrefix(strings.ToLower(p.contentType), "application/json")
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format").TriggerErrorNotification("Invalid request format")
	}
	return nil
}
