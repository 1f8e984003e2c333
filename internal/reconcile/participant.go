package reconcile

import (
	"fmt"
	"regexp"
	"strings"
)

// ParticipantRule maps a recording name to a participant id. Prefix is
// tested against the first underscore separated segment of the name. When
// Pattern is set its first capture group, matched against the whole name,
// becomes the participant id.
type ParticipantRule struct {
	Prefix  string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
}

// DefaultParticipantRules covers the corpora naming schemes seen so far
func DefaultParticipantRules() []ParticipantRule {
	return []ParticipantRule{
		{Prefix: "Participant"},
		{Prefix: "PP"},
		{Prefix: "nds"},
		{Prefix: "s0"},
	}
}

type compiledRule struct {
	ParticipantRule
	re *regexp.Regexp
}

// ParticipantResolver evaluates participant rules in order
type ParticipantResolver struct {
	rules []compiledRule
}

// NewParticipantResolver compiles the rule patterns
func NewParticipantResolver(rules []ParticipantRule) (*ParticipantResolver, error) {
	r := &ParticipantResolver{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if rule.Prefix == "" && rule.Pattern == "" {
			return nil, fmt.Errorf("participant rule %d: prefix or pattern is required", i)
		}
		c := compiledRule{ParticipantRule: rule}
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("participant rule %d: invalid pattern: %w", i, err)
			}
			if re.NumSubexp() < 1 {
				return nil, fmt.Errorf("participant rule %d: pattern %q has no capture group", i, rule.Pattern)
			}
			c.re = re
		}
		r.rules = append(r.rules, c)
	}
	return r, nil
}

// Resolve derives the participant id from a recording base name. The first
// matching rule wins. Without a match the trailing two segments are removed,
// and names with fewer than three segments are returned unchanged.
func (r *ParticipantResolver) Resolve(name string) string {
	segments := strings.Split(name, "_")
	first := segments[0]

	for _, rule := range r.rules {
		if !strings.HasPrefix(first, rule.Prefix) {
			continue
		}
		if rule.re == nil {
			return first
		}
		if m := rule.re.FindStringSubmatch(name); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}

	if len(segments) < 3 {
		return name
	}
	return strings.Join(segments[:len(segments)-2], "_")
}
