package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/mcuadros/go-defaults"
	"github.com/srg/hai/internal/telemetry"
	"github.com/stretchr/testify/require"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// PresencePlaceholder in expected JSON matches any actual value, as long as the key exists
const PresencePlaceholder = "<<PRESENCE>>"

type JSONAssertOptions struct {
	IgnoreExtraKeys          bool     `default:"true"`
	AllowPresencePlaceholder bool     `default:"true"`
	IgnoredFields            []string `default:""`
}

// Option is a functional option for configuring JSONAsserter
type Option func(*JSONAssertOptions)

// JSONAsserter compares rendered snapshots structurally and reports a readable diff
type JSONAsserter struct {
	t       require.TestingT
	options JSONAssertOptions
}

// NewJSONAsserter creates a new JSONAsserter with default options
func NewJSONAsserter(t require.TestingT) *JSONAsserter {
	opts := JSONAssertOptions{}
	defaults.SetDefaults(&opts)
	return &JSONAsserter{t: t, options: opts}
}

// WithOptions applies functional options to the JSONAsserter
func (ja *JSONAsserter) WithOptions(opts ...Option) *JSONAsserter {
	for _, opt := range opts {
		opt(&ja.options)
	}
	return ja
}

// Assert compares actualJSON against expectedJSON
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) {
	if diff := ja.diff(actualJSON, expectedJSON); diff != "" {
		ja.t.Errorf("JSON assertion failed:\n%s", diff)
	}
}

// AssertSnapshot marshals snap and compares it against expectedJSON
func (ja *JSONAsserter) AssertSnapshot(snap telemetry.Snapshot, expectedJSON string) {
	data, err := json.Marshal(snap)
	require.NoError(ja.t, err)
	ja.Assert(string(data), expectedJSON)
}

func (ja *JSONAsserter) diff(actualJSON, expectedJSON string) string {
	var expected, actual map[string]interface{}
	if err := json.Unmarshal([]byte(expectedJSON), &expected); err != nil {
		return fmt.Sprintf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actualJSON), &actual); err != nil {
		return fmt.Sprintf("invalid actual JSON: %v", err)
	}

	if ja.options.AllowPresencePlaceholder {
		replacePresence(expected, actual)
	}
	for _, field := range ja.options.IgnoredFields {
		removeField(expected, field)
		removeField(actual, field)
	}
	if ja.options.IgnoreExtraKeys {
		pruneExtraKeys(actual, expected)
	}

	diff := gojsondiff.New().CompareObjects(expected, actual)
	if !diff.Modified() {
		return ""
	}

	f := formatter.NewAsciiFormatter(expected, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	})
	out, err := f.Format(diff)
	if err != nil {
		return fmt.Sprintf("JSON diff formatting failed: %v", err)
	}
	return out
}

func replacePresence(expected, actual interface{}) {
	exp, ok := expected.(map[string]interface{})
	if !ok {
		return
	}
	act, ok := actual.(map[string]interface{})
	if !ok {
		return
	}
	for k, v := range exp {
		if s, ok := v.(string); ok && s == PresencePlaceholder {
			if av, present := act[k]; present {
				exp[k] = av
			}
			continue
		}
		replacePresence(v, act[k])
	}
}

// removeField drops key at any nesting depth
func removeField(v interface{}, key string) {
	switch m := v.(type) {
	case map[string]interface{}:
		delete(m, key)
		for _, child := range m {
			removeField(child, key)
		}
	case []interface{}:
		for _, child := range m {
			removeField(child, key)
		}
	}
}

func pruneExtraKeys(actual, expected interface{}) {
	act, ok := actual.(map[string]interface{})
	if !ok {
		return
	}
	exp, ok := expected.(map[string]interface{})
	if !ok {
		return
	}
	for k := range act {
		if _, keep := exp[k]; !keep {
			delete(act, k)
			continue
		}
		pruneExtraKeys(act[k], exp[k])
	}
}

func WithIgnoreExtraKeys(ignore bool) Option {
	return func(o *JSONAssertOptions) {
		o.IgnoreExtraKeys = ignore
	}
}

func WithAllowPresencePlaceholder(allow bool) Option {
	return func(o *JSONAssertOptions) {
		o.AllowPresencePlaceholder = allow
	}
}

func WithIgnoredFields(fields ...string) Option {
	return func(o *JSONAssertOptions) {
		o.IgnoredFields = append(o.IgnoredFields, fields...)
	}
}
