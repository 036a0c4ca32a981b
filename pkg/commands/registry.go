package commands

import (
	"errors"
	"fmt"
	"strings"
)

// Translator errors.
var (
	// ErrUnknownZone indicates a zone with no registry entry.
	ErrUnknownZone = errors.New("commands: unknown zone")

	// ErrUnknownCommand indicates a command not present in the zone.
	ErrUnknownCommand = errors.New("commands: unknown command")

	// ErrUnknownOpcode indicates an inbound opcode no zone recognizes.
	ErrUnknownOpcode = errors.New("commands: unknown opcode")

	// ErrInvalidArgument indicates an argument no encoding accepts.
	ErrInvalidArgument = errors.New("commands: invalid argument")

	// ErrDuplicateZone indicates a zone registered twice.
	ErrDuplicateZone = errors.New("commands: duplicate zone")

	// ErrDuplicateCommand indicates a command name registered twice in a zone.
	ErrDuplicateCommand = errors.New("commands: duplicate command")

	// ErrBadOpcode indicates an opcode that is not exactly 3 characters.
	ErrBadOpcode = errors.New("commands: opcode must be 3 characters")
)

// OpcodeLen is the fixed length of wire opcodes.
const OpcodeLen = 3

// DefaultZone is assumed when a command names no zone.
const DefaultZone = "main"

// IntRange accepts integer arguments in [Start, End), encoded on the
// wire as two-digit uppercase hex.
type IntRange struct {
	Start int
	End   int
}

// Contains reports whether v lies in the half-open range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Start && v < r.End
}

// Descriptor describes one command within a zone: its human-readable
// name, wire opcode, and the argument encodings it accepts.
type Descriptor struct {
	// Name is the human-readable command name, e.g. "power".
	Name string

	// Opcode is the 3-character wire opcode, e.g. "PWR".
	Opcode string

	// Values lists the literal alias encodings.
	Values []ValueDef

	// Ranges lists the bounded integer encodings.
	Ranges []IntRange

	// Raw marks the command as accepting raw pass-through arguments.
	Raw bool

	// aliases maps each normalized alias to its wire form.
	aliases map[string]string

	// names maps each wire form back to its display name.
	names map[string]string
}

// ValueDef is one literal alias: a display name (possibly a
// comma-separated list of synonyms) and its wire encoding.
type ValueDef struct {
	Name string
	Wire string
}

// zoneEntry pairs a zone name with its descriptor for opcode dispatch.
type zoneEntry struct {
	zone string
	desc *Descriptor
}

// Registry is the command lookup table for all zones. It is populated
// once at load time and safe for concurrent reads afterwards.
type Registry struct {
	// zones maps zone name to its command descriptors keyed by name.
	zones map[string]map[string]*Descriptor

	// zoneAliases maps alternate zone spellings to the registered name.
	zoneAliases map[string]string

	// zoneOrder preserves registration order for opcode tie-breaking.
	zoneOrder []string

	// byOpcode maps each 3-character opcode to the first zone that
	// registered it. Built incrementally; first registration wins.
	byOpcode map[string]zoneEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		zones:       make(map[string]map[string]*Descriptor),
		zoneAliases: make(map[string]string),
		byOpcode:    make(map[string]zoneEntry),
	}
}

// AddZone registers a zone and optional alternate spellings.
func (r *Registry) AddZone(zone string, aliases ...string) error {
	zone = Normalize(zone)
	if _, exists := r.zones[zone]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateZone, zone)
	}
	r.zones[zone] = make(map[string]*Descriptor)
	r.zoneOrder = append(r.zoneOrder, zone)
	for _, a := range aliases {
		r.zoneAliases[Normalize(a)] = zone
	}
	return nil
}

// AddCommand registers a command descriptor in a zone. The zone must
// already exist. The opcode joins the dispatch index unless an earlier
// registration already claimed it.
func (r *Registry) AddCommand(zone string, d Descriptor) error {
	zone = Normalize(zone)
	cmds, ok := r.zones[zone]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	if len(d.Opcode) != OpcodeLen {
		return fmt.Errorf("%w: %q", ErrBadOpcode, d.Opcode)
	}
	name := Normalize(d.Name)
	if _, exists := cmds[name]; exists {
		return fmt.Errorf("%w: %q in zone %q", ErrDuplicateCommand, d.Name, zone)
	}

	desc := d
	desc.Name = name
	desc.aliases = make(map[string]string, len(d.Values)*2)
	desc.names = make(map[string]string, len(d.Values))
	for _, v := range d.Values {
		desc.names[v.Wire] = v.Name
		// Each synonym is reachable both as written ("level-up") and in
		// the separator-folded spelling ("level up").
		for _, part := range strings.Split(v.Name, ",") {
			desc.aliases[normalizeArgument(part)] = v.Wire
			desc.aliases[Normalize(part)] = v.Wire
		}
	}

	cmds[name] = &desc
	if _, taken := r.byOpcode[desc.Opcode]; !taken {
		r.byOpcode[desc.Opcode] = zoneEntry{zone: zone, desc: &desc}
	}
	return nil
}

// Zones returns all registered zone names in registration order.
func (r *Registry) Zones() []string {
	return append([]string(nil), r.zoneOrder...)
}

// HasZone reports whether a zone (or zone alias) is registered.
func (r *Registry) HasZone(zone string) bool {
	_, err := r.resolveZone(zone)
	return err == nil
}

// Commands returns the command names of a zone, or nil if unknown.
func (r *Registry) Commands(zone string) []string {
	z, err := r.resolveZone(zone)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(r.zones[z]))
	for name := range r.zones[z] {
		names = append(names, name)
	}
	return names
}

// resolveZone maps a zone spelling to its registered name.
func (r *Registry) resolveZone(zone string) (string, error) {
	zone = Normalize(zone)
	if zone == "" {
		zone = DefaultZone
	}
	if alias, ok := r.zoneAliases[zone]; ok {
		zone = alias
	}
	if _, ok := r.zones[zone]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	return zone, nil
}

// lookup finds a command descriptor by zone and normalized name.
func (r *Registry) lookup(zone, command string) (string, *Descriptor, error) {
	z, err := r.resolveZone(zone)
	if err != nil {
		return "", nil, err
	}
	desc, ok := r.zones[z][Normalize(command)]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q in zone %q", ErrUnknownCommand, command, z)
	}
	return z, desc, nil
}

// Normalize canonicalizes zone and command spellings: lower-case,
// trimmed, with underscores and dashes treated as spaces.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// normalizeArgument canonicalizes argument spellings. Arguments only
// fold case and whitespace: a leading dash may be a sign, so the
// separator folding applied to names must not touch them.
func normalizeArgument(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
