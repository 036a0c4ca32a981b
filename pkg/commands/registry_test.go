package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
version: 1
zones:
  - name: main
    aliases: ["zone1"]
    commands:
      - name: power
        opcode: PWR
        values:
          - name: "standby,off"
            wire: "00"
          - name: "on"
            wire: "01"
      - name: volume
        opcode: MVL
        ranges:
          - start: 0
            end: 80
      - name: multiroom
        opcode: MSG
        raw: true
  - name: zone2
    commands:
      - name: power
        opcode: ZPW
        values:
          - name: "on"
            wire: "01"
`

func TestParseRegistryYAML(t *testing.T) {
	r, err := ParseRegistry([]byte(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "zone2"}, r.Zones())
	assert.True(t, r.HasZone("zone1"), "zone alias should resolve")

	wire, err := r.TranslateToWire("main", "power", "on")
	require.NoError(t, err)
	assert.Equal(t, "PWR01", wire)

	wire, err = r.TranslateToWire("main", "volume", "79")
	require.NoError(t, err)
	assert.Equal(t, "MVL4F", wire)

	_, err = r.TranslateToWire("main", "volume", "80")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	wire, err = r.TranslateToWire("main", "multiroom", "X/Y/Z")
	require.NoError(t, err)
	assert.Equal(t, "MSGX/Y/Z", wire)
}

func TestParseRegistryInvalid(t *testing.T) {
	_, err := ParseRegistry([]byte("zones: [nonsense"))
	assert.Error(t, err)

	// Opcode must be exactly 3 characters.
	_, err = ParseRegistry([]byte(`
zones:
  - name: main
    commands:
      - name: power
        opcode: POWER
`))
	assert.ErrorIs(t, err, ErrBadOpcode)
}

func TestRegistryDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddZone("main"))

	err := r.AddZone("main")
	assert.ErrorIs(t, err, ErrDuplicateZone)

	require.NoError(t, r.AddCommand("main", Descriptor{Name: "power", Opcode: "PWR"}))
	err = r.AddCommand("main", Descriptor{Name: "power", Opcode: "PWR"})
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	err = r.AddCommand("attic", Descriptor{Name: "power", Opcode: "PWR"})
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestDefaultRegistryCoversSpecExamples(t *testing.T) {
	r := DefaultRegistry()

	for _, zone := range []string{"main", "zone2", "zone3", "zone4", "dock"} {
		assert.True(t, r.HasZone(zone), "zone %q missing", zone)
	}
	assert.NotEmpty(t, r.Commands("main"))
}
