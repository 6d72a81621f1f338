// Package program holds the program listing model and the pure functions
// that operate on it: decoding and normalization of untrusted records,
// filtering and ordering, and rendering to escaped HTML fragments.
package program

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/garyellow/programs-board/internal/errors"
)

// Display defaults for fields that are missing or blank.
const (
	DefaultName        = "Open Source Program"
	DefaultDescription = "No description provided."
	DefaultTimeline    = "N/A"
	DefaultDifficulty  = "Beginner"
	DefaultStipend     = "N/A"
)

// Stipend values that mean "no monetary stipend". Compared case-folded.
const (
	StipendNone  = "n/a"
	StipendPerks = "certificates & perks"
)

var decodeOp = errors.Op{Module: "program", Name: "decode"}

// Record is one raw listing as it appears in the data source.
type Record map[string]any

// Program is a normalized listing. Text fields hold the raw value, or "" when
// the field was missing or not a string; display defaults are applied by the
// accessor methods. Programs are never mutated after normalization.
type Program struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Timeline      string   `json:"timeline"`
	Difficulty    string   `json:"difficulty"`
	Stipend       string   `json:"stipend"`
	Contributors  float64  `json:"contributors"`
	Organizations float64  `json:"organizations"`
	Issues        float64  `json:"issues"`
	Skills        []string `json:"skills"`
	URL           string   `json:"url,omitempty"`
}

// Normalize converts a raw record into a fully-defaulted Program.
// A nil record yields a Program with every field at its default.
func Normalize(r Record) Program {
	skills, ok := stringList(r["skills"])
	if !ok {
		skills, _ = stringList(r["contributions"])
	}
	if skills == nil {
		skills = []string{}
	}

	return Program{
		Name:          text(r["name"]),
		Description:   text(r["description"]),
		Timeline:      text(r["timeline"]),
		Difficulty:    text(r["difficulty"]),
		Stipend:       text(r["stipend"]),
		Contributors:  number(r["contributors"]),
		Organizations: number(r["organizations"]),
		Issues:        number(r["issues"]),
		Skills:        skills,
		URL:           strings.TrimSpace(text(r["url"])),
	}
}

// Decode parses a data source payload. Malformed JSON is an error. A payload
// whose top level is not an array, or is an empty array, decodes to an empty
// slice. Array elements that are not objects normalize to all-default programs.
func Decode(data []byte) ([]Program, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, decodeOp.Wrap(err, "invalid JSON payload (%d bytes)", len(data))
	}

	items, ok := payload.([]any)
	if !ok {
		return []Program{}, nil
	}

	programs := make([]Program, 0, len(items))
	for _, item := range items {
		rec, _ := item.(map[string]any)
		programs = append(programs, Normalize(rec))
	}
	return programs, nil
}

// DisplayName returns the title shown on the card.
func (p Program) DisplayName() string {
	return orDefault(p.Name, DefaultName)
}

// DisplayDescription returns the description shown on the card.
func (p Program) DisplayDescription() string {
	return orDefault(p.Description, DefaultDescription)
}

// DisplayTimeline returns the timeline shown on the card.
func (p Program) DisplayTimeline() string {
	return orDefault(p.Timeline, DefaultTimeline)
}

// DisplayDifficulty returns the level shown on the card.
func (p Program) DisplayDifficulty() string {
	return orDefault(p.Difficulty, DefaultDifficulty)
}

// DisplayStipend returns the stipend shown on the card.
func (p Program) DisplayStipend() string {
	return orDefault(p.Stipend, DefaultStipend)
}

// StipendKey returns the value used by the stipend filter: the case-folded
// stipend text, with a missing stipend treated as "n/a".
func (p Program) StipendKey() string {
	return fold(orDefault(p.Stipend, StipendNone))
}

// HasStipend reports whether the program pays a monetary stipend.
func (p Program) HasStipend() bool {
	key := p.StipendKey()
	return key != StipendNone && key != StipendPerks
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) float64 {
	n, _ := v.(float64)
	return n
}

// stringList reports ok only when v is a JSON array. Scalars are kept in
// their string form; null, objects and nested arrays are dropped.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		case float64:
			out = append(out, formatNumber(s))
		case bool:
			out = append(out, strconv.FormatBool(s))
		}
	}
	return out, true
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
