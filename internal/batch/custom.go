package batch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// variantList accepts either a single IPA string or a list of them
type variantList []string

func (v *variantList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = splitVariants(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = nil
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				*v = append(*v, s)
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: ipa must be a string or a list of strings", node.Line)
	}
}

// LoadCustomYAML loads custom pronunciations from a YAML file.
//
// Expected format:
//
//	pronunciations:
//	  - word: tomato
//	    ipa: [təˈmɑˌtoʊ, təˈmeɪˌtoʊ]
//	  - word: gif
//	    ipa: ˈʤɪf
//
// A scalar ipa value may list several variants separated by "|".
func LoadCustomYAML(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom pronunciations: %w", err)
	}

	var config struct {
		Pronunciations []struct {
			Word string      `yaml:"word"`
			IPA  variantList `yaml:"ipa"`
		} `yaml:"pronunciations"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse custom pronunciations: %w", err)
	}

	custom := make(map[string][]string, len(config.Pronunciations))
	for _, p := range config.Pronunciations {
		word := strings.TrimSpace(p.Word)
		if word == "" || len(p.IPA) == 0 {
			continue
		}
		custom[word] = append(custom[word], p.IPA...)
	}
	return custom, nil
}
