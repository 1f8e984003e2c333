// Package textgrid reads Praat TextGrid files in the long and short text
// formats.
package textgrid

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Interval is one labeled span of an interval tier
type Interval struct {
	Start float64
	End   float64
	Label string
}

// Tier is one tier of a TextGrid. Point tiers store each point as a zero
// length interval.
type Tier struct {
	Name      string
	Class     string
	Intervals []Interval
}

// TextGrid is a decoded TextGrid file
type TextGrid struct {
	XMin  float64
	XMax  float64
	Tiers []Tier
}

// ReadFile reads and decodes a TextGrid file
func ReadFile(path string) (*TextGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read textgrid: %w", err)
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tg, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tg, nil
}

// Parse decodes TextGrid text. Long and short formats carry the same value
// sequence; keys, indices and flags are skipped.
func Parse(text string) (*TextGrid, error) {
	s := &stream{tokens: scan(text)}

	fileType, err := s.str()
	if err != nil {
		return nil, err
	}
	objectClass, err := s.str()
	if err != nil {
		return nil, err
	}
	if fileType != "ooTextFile" || objectClass != "TextGrid" {
		return nil, fmt.Errorf("not a TextGrid: %q %q", fileType, objectClass)
	}

	tg := &TextGrid{}
	if tg.XMin, err = s.num(); err != nil {
		return nil, err
	}
	if tg.XMax, err = s.num(); err != nil {
		return nil, err
	}
	size, err := s.count()
	if err != nil {
		return nil, err
	}

	for range size {
		tier, err := s.tier()
		if err != nil {
			return nil, err
		}
		tg.Tiers = append(tg.Tiers, tier)
	}

	return tg, nil
}

// Tier returns the tier at position index
func (tg *TextGrid) Tier(index int) (*Tier, error) {
	if index < 0 || index >= len(tg.Tiers) {
		return nil, fmt.Errorf("tier index %d out of range (%d tiers)", index, len(tg.Tiers))
	}
	return &tg.Tiers[index], nil
}

// Labels returns the labels of non-empty intervals in temporal order
func (t *Tier) Labels() []string {
	var labels []string
	for _, iv := range t.Intervals {
		if strings.TrimSpace(iv.Label) == "" {
			continue
		}
		labels = append(labels, iv.Label)
	}
	return labels
}

type token struct {
	text   string
	quoted bool
}

type stream struct {
	tokens []token
	pos    int
}

func (s *stream) next() (token, error) {
	if s.pos >= len(s.tokens) {
		return token{}, fmt.Errorf("unexpected end of textgrid")
	}
	t := s.tokens[s.pos]
	s.pos++
	return t, nil
}

func (s *stream) str() (string, error) {
	t, err := s.next()
	if err != nil {
		return "", err
	}
	if !t.quoted {
		return "", fmt.Errorf("expected string, got %q", t.text)
	}
	return t.text, nil
}

func (s *stream) num() (float64, error) {
	t, err := s.next()
	if err != nil {
		return 0, err
	}
	if t.quoted {
		return 0, fmt.Errorf("expected number, got string %q", t.text)
	}
	return strconv.ParseFloat(t.text, 64)
}

func (s *stream) count() (int, error) {
	f, err := s.num()
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid count %v", f)
	}
	return int(f), nil
}

func (s *stream) tier() (Tier, error) {
	var t Tier
	var err error
	if t.Class, err = s.str(); err != nil {
		return t, err
	}
	if t.Name, err = s.str(); err != nil {
		return t, err
	}
	if _, err = s.num(); err != nil {
		return t, err
	}
	if _, err = s.num(); err != nil {
		return t, err
	}
	n, err := s.count()
	if err != nil {
		return t, err
	}

	point := t.Class == "TextTier"
	if !point && t.Class != "IntervalTier" {
		return t, fmt.Errorf("tier %q: unsupported class %q", t.Name, t.Class)
	}

	for range n {
		var iv Interval
		if iv.Start, err = s.num(); err != nil {
			return t, err
		}
		iv.End = iv.Start
		if !point {
			if iv.End, err = s.num(); err != nil {
				return t, err
			}
		}
		if iv.Label, err = s.str(); err != nil {
			return t, err
		}
		t.Intervals = append(t.Intervals, iv)
	}
	return t, nil
}

// scan extracts quoted strings and free-standing numbers. Identifiers,
// bracketed indices, <flags> and ! comments are dropped.
func scan(text string) []token {
	var tokens []token
	r := []rune(text)
	for i := 0; i < len(r); i++ {
		c := r[i]
		switch {
		case c == '"':
			var b strings.Builder
			for i++; i < len(r); i++ {
				if r[i] == '"' {
					if i+1 < len(r) && r[i+1] == '"' {
						b.WriteRune('"')
						i++
						continue
					}
					break
				}
				b.WriteRune(r[i])
			}
			tokens = append(tokens, token{text: b.String(), quoted: true})
		case c == '!':
			for i < len(r) && r[i] != '\n' {
				i++
			}
		case c == '[':
			for i < len(r) && r[i] != ']' {
				i++
			}
		case c == '<':
			for i < len(r) && r[i] != '>' {
				i++
			}
		case unicode.IsDigit(c) || ((c == '-' || c == '+' || c == '.') && i+1 < len(r) && (unicode.IsDigit(r[i+1]) || r[i+1] == '.')):
			start := i
			for i+1 < len(r) && isNumberRune(r[i+1]) {
				i++
			}
			tokens = append(tokens, token{text: string(r[start : i+1])})
		case unicode.IsLetter(c) || c == '_':
			for i+1 < len(r) && (unicode.IsLetter(r[i+1]) || unicode.IsDigit(r[i+1]) || r[i+1] == '_' || r[i+1] == '?') {
				i++
			}
		}
	}
	return tokens
}

func isNumberRune(c rune) bool {
	return unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+'
}

// decodeText converts the UTF-16 encodings Praat writes for non-ASCII labels
// to UTF-8. Data without a byte order mark is read as UTF-8.
func decodeText(data []byte) (string, error) {
	decoder := xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode textgrid text: %w", err)
	}
	return string(out), nil
}
