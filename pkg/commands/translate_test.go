package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateToWireAliases(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name     string
		zone     string
		command  string
		argument string
		want     string
	}{
		{name: "power on", zone: "main", command: "power", argument: "on", want: "PWR01"},
		{name: "power standby", zone: "main", command: "power", argument: "standby", want: "PWR00"},
		{name: "power off synonym", zone: "main", command: "power", argument: "off", want: "PWR00"},
		{name: "default zone", zone: "", command: "power", argument: "on", want: "PWR01"},
		{name: "zone alias", zone: "zone1", command: "power", argument: "on", want: "PWR01"},
		{name: "query alias", zone: "main", command: "volume", argument: "query", want: "MVLQSTN"},
		{name: "zone2 power", zone: "zone2", command: "power", argument: "on", want: "ZPW01"},
		{name: "underscored command", zone: "main", command: "input_selector", argument: "tv", want: "SLI12"},
		{name: "dashed argument", zone: "main", command: "volume", argument: "level-up", want: "MVLUP"},
		{name: "case insensitive", zone: "MAIN", command: "Power", argument: "ON", want: "PWR01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.TranslateToWire(tt.zone, tt.command, tt.argument)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateToWireRanges(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.TranslateToWire("main", "volume", "50")
	require.NoError(t, err)
	assert.Equal(t, "MVL32", got)

	got, err = r.TranslateToWire("main", "volume", "0")
	require.NoError(t, err)
	assert.Equal(t, "MVL00", got)

	// 100 is outside the half-open range [0, 100).
	_, err = r.TranslateToWire("main", "volume", "100")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.TranslateToWire("main", "volume", "150")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTranslateToWireRaw(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.TranslateToWire("main", "multiroom", "GroupA/all")
	require.NoError(t, err)
	assert.Equal(t, "MSGGroupA/all", got)
}

func TestTranslateToWireErrors(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.TranslateToWire("basement", "power", "on")
	assert.ErrorIs(t, err, ErrUnknownZone)

	_, err = r.TranslateToWire("main", "teleport", "on")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = r.TranslateToWire("main", "power", "sideways")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTranslateFreeTextMatchesPreSplit(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		text string
		zone string
		cmd  string
		arg  string
	}{
		{name: "dot equals", text: "main.power=on", zone: "main", cmd: "power", arg: "on"},
		{name: "spaces", text: "main power on", zone: "main", cmd: "power", arg: "on"},
		{name: "no zone equals", text: "power=on", zone: "", cmd: "power", arg: "on"},
		{name: "no zone spaces", text: "power on", zone: "", cmd: "power", arg: "on"},
		{name: "colon", text: "volume:55", zone: "main", cmd: "volume", arg: "55"},
		{name: "zone2 volume", text: "zone2.volume=66", zone: "zone2", cmd: "volume", arg: "66"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fromText, err := r.TranslateFreeText(tt.text)
			require.NoError(t, err)

			fromSplit, err := r.TranslateToWire(tt.zone, tt.cmd, tt.arg)
			require.NoError(t, err)

			assert.Equal(t, fromSplit, fromText)
		})
	}
}

func TestNegativeArgumentRejectedOnEveryPath(t *testing.T) {
	r := DefaultRegistry()

	// A leading dash is a sign, not a separator: "-12" must not fold
	// into "12" and slip inside the volume range on any input path.
	_, err := r.TranslateToWire("main", "volume", "-12")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.TranslateFreeText("main.volume=-12")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.TranslateFreeText("main volume -12")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.TranslateFreeText("volume:-12")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseCommandErrors(t *testing.T) {
	tests := []string{"", "power", "   ", "="}
	for _, text := range tests {
		_, err := ParseCommand(text)
		assert.ErrorIs(t, err, ErrMissingArgument, "text %q", text)
	}
}

func TestTranslateFromWire(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		raw  string
		want Update
	}{
		{
			name: "alias value",
			raw:  "PWR01",
			want: Update{Zone: "main", Command: "power", Value: StringValue("on")},
		},
		{
			name: "tuple alias value",
			raw:  "PWR00",
			want: Update{Zone: "main", Command: "power", Value: TupleValue("standby", "off")},
		},
		{
			name: "hex integer value",
			raw:  "MVL20",
			want: Update{Zone: "main", Command: "volume", Value: IntValue(32)},
		},
		{
			name: "signed hex value",
			raw:  "MVL-05",
			want: Update{Zone: "main", Command: "volume", Value: IntValue(-5)},
		},
		{
			name: "zone2 opcode",
			raw:  "ZPW01",
			want: Update{Zone: "zone2", Command: "power", Value: StringValue("on")},
		},
		{
			name: "raw string value",
			raw:  "MSGGroupA/all",
			want: Update{Zone: "main", Command: "multiroom", Value: StringValue("GroupA/all")},
		},
		{
			name: "raw tuple value",
			raw:  "MSGalpha,beta",
			want: Update{Zone: "main", Command: "multiroom", Value: TupleValue("alpha", "beta")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.TranslateFromWire(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Zone, got.Zone)
			assert.Equal(t, tt.want.Command, got.Command)
			assert.True(t, tt.want.Value.Equal(got.Value),
				"value = %#v, want %#v", got.Value, tt.want.Value)
		})
	}
}

func TestTranslateFromWireUnknownOpcode(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.TranslateFromWire("XYZ01")
	assert.ErrorIs(t, err, ErrUnknownOpcode)

	_, err = r.TranslateFromWire("PW")
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestOpcodeTieFirstZoneWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddZone("main"))
	require.NoError(t, r.AddZone("zone2"))

	require.NoError(t, r.AddCommand("main", Descriptor{
		Name:   "power",
		Opcode: "PWR",
		Values: []ValueDef{{Name: "on", Wire: "01"}},
	}))
	require.NoError(t, r.AddCommand("zone2", Descriptor{
		Name:   "power",
		Opcode: "PWR",
		Values: []ValueDef{{Name: "on", Wire: "01"}},
	}))

	got, err := r.TranslateFromWire("PWR01")
	require.NoError(t, err)
	assert.Equal(t, "main", got.Zone)
}

func TestRoundTripThroughWire(t *testing.T) {
	r := DefaultRegistry()

	wire, err := r.TranslateToWire("main", "input-selector", "tv")
	require.NoError(t, err)

	upd, err := r.TranslateFromWire(wire)
	require.NoError(t, err)
	assert.Equal(t, "main", upd.Zone)
	assert.Equal(t, "input selector", upd.Command)
	assert.Equal(t, StringValue("tv"), upd.Value)
}
