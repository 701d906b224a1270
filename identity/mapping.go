package identity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadMappingFile reads an account id to email mapping from YAML. Both a flat map and
// a list of {account_id, email} entries are accepted.
func LoadMappingFile(path string) (map[string]string, error) {
	content, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("read identity mapping file: %w", err)
	}
	return ParseMapping(content)
}

type mappingEntry struct {
	AccountID string `yaml:"account_id"`
	Email     string `yaml:"email"`
}

func ParseMapping(content []byte) (map[string]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, fmt.Errorf("decode identity mapping: %w", err)
	}
	if len(node.Content) == 0 {
		return map[string]string{}, nil
	}

	out := make(map[string]string)
	root := node.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		var flat map[string]string
		if err := root.Decode(&flat); err != nil {
			return nil, fmt.Errorf("decode identity mapping: %w", err)
		}
		for accountID, email := range flat {
			out[strings.TrimSpace(accountID)] = strings.TrimSpace(email)
		}
	case yaml.SequenceNode:
		var entries []mappingEntry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode identity mapping: %w", err)
		}
		for i, entry := range entries {
			if strings.TrimSpace(entry.AccountID) == "" || strings.TrimSpace(entry.Email) == "" {
				return nil, fmt.Errorf("identity mapping entry %d requires account_id and email", i)
			}
			out[strings.TrimSpace(entry.AccountID)] = strings.TrimSpace(entry.Email)
		}
	default:
		return nil, fmt.Errorf("identity mapping must be a map or a list")
	}
	return out, nil
}
