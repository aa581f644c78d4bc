// Package parser turns console lines into dispatcher events. Lines are plain
// lowercase words ("feed", "sell 12", "engage 1 5"); a line that already starts
// with a colon command (":ENGAGE: 1 5") is passed through as is.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/pkg/core"
)

// ErrEmptyLine is returned for blank input.
var ErrEmptyLine = errors.New("empty line")

// ErrUnknownPhrase is returned when no phrase matches the line.
var ErrUnknownPhrase = errors.New("unknown phrase")

type phrase struct {
	words   []string
	command string
}

// phrases maps console words to commands. Longer phrases win.
var phrases = []phrase{
	{[]string{"feed"}, ":FEED:"},
	{[]string{"confirm", "fed"}, ":CONFIRM:FED:"},
	{[]string{"confirm", "hungry"}, ":CONFIRM:HUNGRY:"},
	{[]string{"sell"}, ":SELL:"},
	{[]string{"sell", "card"}, ":SELL:CARD:"},
	{[]string{"next", "day"}, ":NEXT:DAY:"},
	{[]string{"next"}, ":NEXT:DAY:"},
	{[]string{"end", "game"}, ":END:GAME:"},
	{[]string{"pause"}, ":PAUSE:"},
	{[]string{"speed"}, ":SPEED:"},
	{[]string{"ff"}, ":SPEED:"},
	{[]string{"engage"}, ":ENGAGE:"},
	{[]string{"disengage"}, ":DISENGAGE:"},
	{[]string{"status"}, ":STATUS:"},
	{[]string{"autopilot"}, ":AUTOPILOT:"},
	{[]string{"help"}, ":HELP:"},
	{[]string{"quit"}, ":QUIT:"},
	{[]string{"exit"}, ":QUIT:"},
}

// Commands lists every command a console line can produce, sorted.
func Commands() []string {
	var out []string
	for _, p := range phrases {
		if !slices.Contains(out, p.command) {
			out = append(out, p.command)
		}
	}
	slices.Sort(out)
	return out
}

// Parser converts console lines into dispatcher events.
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, now: time.Now}
}

// ParseLine converts one console line. "sell" followed by an ID is a card sale.
func (p *Parser) ParseLine(line string) (dispatcher.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return dispatcher.Event{}, ErrEmptyLine
	}

	if strings.HasPrefix(fields[0], ":") {
		e := dispatcher.Event{Command: strings.ToUpper(fields[0]), Args: fields[1:], Timestamp: p.now()}
		p.logger.Debug("parsed raw command", "command", e.Command, "args", len(e.Args))
		return e, nil
	}

	words := make([]string, len(fields))
	for i, f := range fields {
		words[i] = strings.ToLower(f)
	}

	var best *phrase
	for i := range phrases {
		ph := &phrases[i]
		if len(ph.words) > len(words) || !slices.Equal(ph.words, words[:len(ph.words)]) {
			continue
		}
		if best == nil || len(ph.words) > len(best.words) {
			best = ph
		}
	}
	if best == nil {
		if hint := suggest(words); hint != "" {
			return dispatcher.Event{}, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownPhrase, line, hint)
		}
		return dispatcher.Event{}, fmt.Errorf("%w: %q", ErrUnknownPhrase, line)
	}

	e := dispatcher.Event{
		Command:   best.command,
		Args:      fields[len(best.words):],
		Timestamp: p.now(),
	}
	if e.Command == ":SELL:" && len(e.Args) > 0 {
		e.Command = ":SELL:CARD:"
	}
	p.logger.Debug("parsed console line", "command", e.Command, "args", len(e.Args))
	return e, nil
}

// suggest returns the phrase closest to the leading words, or "".
func suggest(words []string) string {
	best, bestDist := "", -1
	for _, ph := range phrases {
		n := min(len(ph.words), len(words))
		candidate := strings.Join(ph.words, " ")
		dist := levenshtein.ComputeDistance(strings.Join(words[:n], " "), candidate)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	if bestDist < 0 || bestDist > max(1, len(best)/3) {
		return ""
	}
	return best
}

// ParseID parses an entity ID. Numbers may arrive as floats ("12.0") from
// scripted clients.
func ParseID(s string) (core.ID, error) {
	v, err := parseUintFromFloat(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if v == 0 || v > uint64(^core.ID(0)) {
		return 0, fmt.Errorf("invalid id %q: out of range", s)
	}
	return core.ID(v), nil
}

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}
