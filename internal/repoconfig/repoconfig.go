// Package repoconfig parses the per-repository bot configuration file.
//
// Example:
//
//	labels:
//	  approved: ["+approved", "-S-waiting-on-author"]
//	  build_started: ["+S-waiting-on-bors", "-S-waiting-on-review"]
//	  build_failed: ["-S-waiting-on-bors", "+S-waiting-on-review"]
//
// A label prefixed with "-" is removed; "+" or no prefix adds it.
package repoconfig

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"basegraph.app/mergebot/internal/labels"
)

var ErrInvalidConfig = errors.New("invalid repository config")

type RepoConfig struct {
	Labels labels.Policy
}

type fileFormat struct {
	Labels map[string][]string `yaml:"labels"`
}

// Default is used for repositories without a config file.
func Default() RepoConfig {
	return RepoConfig{Labels: labels.Policy{}}
}

func Parse(data []byte) (RepoConfig, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RepoConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	policy := make(labels.Policy, len(raw.Labels))
	for key, entries := range raw.Labels {
		trigger, err := labels.ParseTrigger(key)
		if err != nil {
			return RepoConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		mods := make([]labels.Modification, 0, len(entries))
		for _, entry := range entries {
			mod, err := parseModification(entry)
			if err != nil {
				return RepoConfig{}, fmt.Errorf("%w: labels.%s: %w", ErrInvalidConfig, key, err)
			}
			mods = append(mods, mod)
		}
		policy[trigger] = mods
	}

	return RepoConfig{Labels: policy}, nil
}

func parseModification(entry string) (labels.Modification, error) {
	entry = strings.TrimSpace(entry)

	var mod labels.Modification
	switch {
	case strings.HasPrefix(entry, "-"):
		mod = labels.Remove(strings.TrimSpace(entry[1:]))
	case strings.HasPrefix(entry, "+"):
		mod = labels.Add(strings.TrimSpace(entry[1:]))
	default:
		mod = labels.Add(entry)
	}

	if mod.Label == "" {
		return labels.Modification{}, fmt.Errorf("empty label in %q", entry)
	}
	return mod, nil
}
