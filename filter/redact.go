package filter

import (
	"regexp"
	"strings"

	"github.com/vidinsight-labs/microlog/record"
)

// DefaultPatterns are the built-in sensitive-data detectors, keyed by the
// name substituted into Redaction.Replacement's "{type}" placeholder.
var DefaultPatterns = map[string]string{
	"email":       `\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`,
	"ssn":         `\b\d{3}-\d{2}-\d{4}\b`,
	"credit_card": `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`,
	"phone_us":    `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`,
	"ipv4":        `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
	"password":    `(?i)(password|passwd|pwd)[\s:=]+\S+`,
	"api_key":     `(?i)(api[_-]?key|apikey|token)[\s:=]+\S+`,
}

// Redaction masks sensitive substrings in a record's message and string
// fields. It never drops a record — Apply always returns ok=true — it
// only rewrites content.
type Redaction struct {
	compiled map[string]*regexp.Regexp
	// Replacement is the mask template; "{type}" is substituted with the
	// upper-cased pattern name, e.g. "[REDACTED_EMAIL]".
	Replacement string
}

// NewRedaction compiles patterns (or DefaultPatterns if nil) restricted
// to enabled, if enabled is non-nil. An invalid regex in patterns is
// skipped rather than failing construction, matching the source
// filter's tolerance for a bad custom pattern.
func NewRedaction(patterns map[string]string, enabled []string, replacement string) *Redaction {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	if replacement == "" {
		replacement = "[REDACTED_{type}]"
	}

	var allow map[string]struct{}
	if enabled != nil {
		allow = make(map[string]struct{}, len(enabled))
		for _, name := range enabled {
			allow[name] = struct{}{}
		}
	}

	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for name, pattern := range patterns {
		if allow != nil {
			if _, ok := allow[name]; !ok {
				continue
			}
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		compiled[name] = re
	}

	return &Redaction{compiled: compiled, Replacement: replacement}
}

func (r *Redaction) Apply(rec record.Record) (record.Record, bool) {
	rec.Message = r.mask(rec.Message)

	if len(rec.Fields) > 0 {
		fields := make(map[string]any, len(rec.Fields))
		for k, v := range rec.Fields {
			if s, ok := v.(string); ok {
				fields[k] = r.mask(s)
			} else {
				fields[k] = v
			}
		}
		rec.Fields = fields
	}

	return rec, true
}

func (r *Redaction) mask(text string) string {
	for name, re := range r.compiled {
		replacement := strings.ReplaceAll(r.Replacement, "{type}", strings.ToUpper(name))
		text = re.ReplaceAllString(text, replacement)
	}
	return text
}
