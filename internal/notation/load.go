package notation

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule document and builds a table from it:
//
//	rules:
//	  - name: roll
//	    pattern: '\b([0-9]+)[dD]([0-9]+)\b'
//	    replacement: 'roll($1, $2)'
//	    samples: ['4d6']
func LoadRules(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc ruleFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("notation rules: empty document")
		}
		return nil, fmt.Errorf("notation rules: decode: %w", err)
	}
	return NewTable(doc.Rules)
}

// LoadFile reads rules from a YAML file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("notation rules: %w", err)
	}
	defer f.Close()
	t, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// MarshalRules renders rules in the format LoadRules reads.
func MarshalRules(rules []Rule) ([]byte, error) {
	return yaml.Marshal(ruleFile{Rules: rules})
}
