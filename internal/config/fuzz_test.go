package config

import (
	"testing"
)

// FuzzParse feeds arbitrary YAML to Parse.
// Run: go test -fuzz=FuzzParse -fuzztime=30s ./internal/config
func FuzzParse(f *testing.F) {
	seeds := []string{
		``,
		`{}`,
		`null`,
		`[]`,
		`"string"`,
		`123`,
		"runner: newman\n",
		"smtp:\n  port: 587\n  use_tls: yes\n",
		"mail:\n  recipients: [a@example.com]\n",
		"collections_root: 项目\n",
		"runner: [unterminated",
		"a: &x [*x]\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := Parse(data)
		if err == nil && cfg == nil {
			t.Fatal("Parse returned nil config without error")
		}
	})
}
