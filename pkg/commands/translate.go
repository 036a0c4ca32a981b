package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingArgument indicates free text with no argument part.
var ErrMissingArgument = errors.New("commands: need at least command and argument")

var (
	// commandSeparators split the zone/command part of free text.
	commandSeparators = regexp.MustCompile(`[. ]+`)

	// argumentSeparators split the argument part of free text.
	argumentSeparators = regexp.MustCompile(`[ ,]+`)

	// baseArgumentSplit separates command from argument in the
	// "cmd=arg" and "cmd:arg1,arg2" forms.
	baseArgumentSplit = regexp.MustCompile(`[:=]`)

	// hexArgument matches a signed hexadecimal inbound argument.
	hexArgument = regexp.MustCompile(`^[+-]?[0-9a-fA-F]+$`)
)

// ParsedCommand is the result of splitting a free-text command.
type ParsedCommand struct {
	// Zone is the normalized zone name ("main" when omitted).
	Zone string

	// Command is the normalized command name.
	Command string

	// Arguments holds the normalized argument parts.
	Arguments []string

	// RawArgument is the original argument text, preserved for
	// raw pass-through commands.
	RawArgument string
}

// ParseCommand splits free text into zone, command and arguments.
// Accepted forms: "zone.cmd=arg", "cmd=arg", "cmd:arg1,arg2",
// "zone cmd arg" and "cmd arg". Zone defaults to "main".
//
// Zone and command parts are name-normalized; argument parts only fold
// case and whitespace, exactly as the pre-split translation path does.
func ParseCommand(text string) (ParsedCommand, error) {
	var p ParsedCommand

	if loc := baseArgumentSplit.FindStringIndex(text); loc != nil {
		base, rawArgs := text[:loc[0]], text[loc[1]:]
		parts := splitParts(commandSeparators, base)
		switch len(parts) {
		case 2:
			p.Zone, p.Command = Normalize(parts[0]), Normalize(parts[1])
		case 1:
			p.Zone, p.Command = DefaultZone, Normalize(parts[0])
		default:
			return ParsedCommand{}, fmt.Errorf("%w: %q", ErrMissingArgument, text)
		}
		p.RawArgument = strings.TrimSpace(rawArgs)
		p.Arguments = normalizeArguments(splitParts(argumentSeparators, rawArgs))
	} else {
		parts := splitParts(commandSeparators, text)
		switch {
		case len(parts) >= 3:
			p.Zone, p.Command = Normalize(parts[0]), Normalize(parts[1])
			p.Arguments = normalizeArguments(parts[2:])
			p.RawArgument = strings.Join(parts[2:], " ")
		case len(parts) == 2:
			p.Zone, p.Command = DefaultZone, Normalize(parts[0])
			p.Arguments = normalizeArguments(parts[1:])
			p.RawArgument = parts[1]
		default:
			return ParsedCommand{}, fmt.Errorf("%w: %q", ErrMissingArgument, text)
		}
	}

	if len(p.Arguments) == 0 || p.Arguments[0] == "" {
		return ParsedCommand{}, fmt.Errorf("%w: %q", ErrMissingArgument, text)
	}
	return p, nil
}

// TranslateToWire resolves a pre-split (zone, command, argument) triple
// to its wire form, e.g. ("main", "power", "on") -> "PWR01".
// Zone defaults to "main" when empty.
func (r *Registry) TranslateToWire(zone, command, argument string) (string, error) {
	return r.translate(zone, command, argument, argument)
}

// TranslateFreeText parses a free-text command and resolves it to its
// wire form, e.g. "main.power=on" -> "PWR01".
func (r *Registry) TranslateFreeText(text string) (string, error) {
	p, err := ParseCommand(text)
	if err != nil {
		return "", err
	}
	return r.translate(p.Zone, p.Command, p.Arguments[0], p.RawArgument)
}

// translate resolves the argument against the command's encodings in
// order: literal alias, bounded integer range, raw pass-through.
func (r *Registry) translate(zone, command, argument, rawArgument string) (string, error) {
	z, desc, err := r.lookup(zone, command)
	if err != nil {
		return "", err
	}

	if wire, ok := desc.aliases[normalizeArgument(argument)]; ok {
		return desc.Opcode + wire, nil
	}

	if n, ok := parseDigits(argument); ok {
		for _, rng := range desc.Ranges {
			if rng.Contains(n) {
				return fmt.Sprintf("%s%02X", desc.Opcode, n), nil
			}
		}
	} else if desc.Raw {
		return desc.Opcode + rawArgument, nil
	}

	return "", fmt.Errorf("%w: %q for command %q in zone %q",
		ErrInvalidArgument, argument, command, z)
}

// TranslateFromWire decodes an inbound wire message ("PWR01") into the
// zone, command name and value it reports. When several zones share an
// opcode prefix, the first registered zone wins.
func (r *Registry) TranslateFromWire(raw string) (Update, error) {
	if len(raw) < OpcodeLen {
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownOpcode, raw)
	}
	opcode, args := raw[:OpcodeLen], raw[OpcodeLen:]

	entry, ok := r.byOpcode[opcode]
	if !ok {
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownOpcode, raw)
	}

	return Update{
		Zone:    entry.zone,
		Command: entry.desc.Name,
		Value:   entry.desc.decodeValue(args),
	}, nil
}

// decodeValue resolves inbound argument text: known alias name first,
// then signed hex integer, then raw string (split on commas).
func (d *Descriptor) decodeValue(args string) Value {
	if name, ok := d.names[args]; ok {
		if strings.Contains(name, ",") {
			return TupleValue(strings.Split(name, ",")...)
		}
		return StringValue(name)
	}
	if hexArgument.MatchString(args) {
		if n, err := strconv.ParseInt(args, 16, 64); err == nil {
			return IntValue(n)
		}
	}
	if strings.Contains(args, ",") {
		return TupleValue(strings.Split(args, ",")...)
	}
	return StringValue(args)
}

// splitParts splits on a separator pattern, trimming each part and
// dropping empties. Normalization is the caller's job: command parts
// and argument parts normalize differently.
func splitParts(sep *regexp.Regexp, s string) []string {
	var out []string
	for _, part := range sep.Split(strings.TrimSpace(s), -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeArguments folds case and whitespace of each argument part.
func normalizeArguments(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = normalizeArgument(p)
	}
	return out
}

// parseDigits parses an all-digit argument.
func parseDigits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
