package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/override-go/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	d := Default()
	require.NoError(t, Validate(d))
	assert.Equal(t, "Proxies", d.EntranceGroup)
	assert.Equal(t, "🎯Direct", d.DirectGroup)
	assert.Equal(t, 2, d.InsertPosition)
	assert.Equal(t, []string{"LoB-JP", "LoB-US", "LoB-HK", "FaB-JP", "FaB-US", "FaB-HK"}, d.RegionNames())
}

func TestIgnoreSet_DefaultsToRegionNames(t *testing.T) {
	set := Default().IgnoreSet()
	assert.Len(t, set, 6)
	assert.Contains(t, set, "FaB-HK")

	s := Default()
	s.Ignore = []string{"Only"}
	assert.Equal(t, map[string]struct{}{"Only": {}}, s.IgnoreSet())
}

func TestParseProfileYAML_MinimalUsesDefaults(t *testing.T) {
	p, err := ParseProfileYAML("profile.yaml", "version: 1\n")
	require.NoError(t, err)
	assert.Equal(t, Default(), *p)
}

func TestParseProfileYAML_Custom(t *testing.T) {
	yml := `
version: 1
entrance_group: "Entry"
direct_group: "Home"
base_groups: ["Entry", "Home", "Extra"]
local_prefix: "self-"
listeners:
  - {port: 7891, type: mixed}
regions:
  - name: "SG"
    type: url-test
    filter: "Singapore"
  - name: "ALL"
    type: select
    unfiltered: true
    test_url: "https://cp.cloudflare.com/"
match: word
strict: true
`
	p, err := ParseProfileYAML("https://example.com/profile.yaml", yml)
	require.NoError(t, err)

	assert.Equal(t, "Entry", p.EntranceGroup)
	assert.Equal(t, "Home", p.DirectGroup)
	assert.Equal(t, 3, p.InsertPosition, "insert position follows base_groups")
	assert.Equal(t, "self-", p.LocalPrefix)
	assert.Equal(t, []ListenerSpec{{Port: 7891, Type: "mixed"}}, p.Listeners)
	require.Len(t, p.Regions, 2)
	assert.Equal(t, model.GroupURLTest, p.Regions[0].Type)
	assert.Equal(t, "Singapore", p.Regions[0].FilterCode)
	assert.Equal(t, DefaultTestURL, p.Regions[0].TestURL, "region test url inherits profile test url")
	assert.True(t, p.Regions[1].Unfiltered)
	assert.Equal(t, "https://cp.cloudflare.com/", p.Regions[1].TestURL)
	assert.Equal(t, MatchWord, p.Match)
	assert.True(t, p.Strict)
}

// TestParseProfileYAML_ExplicitEmptyDisablesDefaults keeps present-but-empty
// keys empty instead of falling back to the built-in values.
func TestParseProfileYAML_ExplicitEmptyDisablesDefaults(t *testing.T) {
	p, err := ParseProfileYAML("", "version: 1\nlisteners: []\nregions: []\nbase_groups: []\nlocal_prefix: \"\"\n")
	require.NoError(t, err)
	assert.NotNil(t, p.Listeners)
	assert.Empty(t, p.Listeners)
	assert.NotNil(t, p.Regions)
	assert.Empty(t, p.Regions)
	assert.Empty(t, p.BaseGroups)
	assert.Equal(t, 0, p.InsertPosition)
	assert.Equal(t, "", p.LocalPrefix)
	assert.Empty(t, p.IgnoreSet())

	// Absent or null keys still take the defaults.
	p, err = ParseProfileYAML("", "version: 1\nlisteners:\n")
	require.NoError(t, err)
	assert.Equal(t, Default().Listeners, p.Listeners)
	assert.Equal(t, Default().LocalPrefix, p.LocalPrefix)
}

func TestParseProfileYAML_ExplicitZeroInsertPosition(t *testing.T) {
	p, err := ParseProfileYAML("", "version: 1\ninsert_position: 0\n")
	require.NoError(t, err)
	assert.Equal(t, 0, p.InsertPosition)
}

func TestParseProfileYAML_RegionTypeDefaultsToLoadBalance(t *testing.T) {
	p, err := ParseProfileYAML("", "version: 1\nregions:\n  - name: X\n")
	require.NoError(t, err)
	require.Len(t, p.Regions, 1)
	assert.Equal(t, model.GroupLoadBalance, p.Regions[0].Type)
}

func TestParseProfileYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		code string
	}{
		{"unknown field", "version: 1\nbogus: 1\n", "PROFILE_PARSE_ERROR"},
		{"multi document", "version: 1\n---\nversion: 1\n", "PROFILE_PARSE_ERROR"},
		{"empty", "", "PROFILE_PARSE_ERROR"},
		{"bad version", "version: 2\n", "PROFILE_VALIDATE_ERROR"},
		{"bad port", "version: 1\nlisteners: [{port: 70000, type: socks}]\n", "PROFILE_VALIDATE_ERROR"},
		{"bad listener type", "version: 1\nlisteners: [{port: 1080, type: tun}]\n", "PROFILE_VALIDATE_ERROR"},
		{"dup listener", "version: 1\nlisteners: [{port: 1080, type: socks}, {port: 1080, type: socks}]\n", "PROFILE_VALIDATE_ERROR"},
		{"dup region", "version: 1\nregions: [{name: A}, {name: A}]\n", "PROFILE_VALIDATE_ERROR"},
		{"reserved region", "version: 1\nregions: [{name: DIRECT}]\n", "PROFILE_VALIDATE_ERROR"},
		{"bad group type", "version: 1\nregions: [{name: A, type: relay}]\n", "PROFILE_VALIDATE_ERROR"},
		{"bad test url", "version: 1\ntest_url: ftp://x\n", "PROFILE_VALIDATE_ERROR"},
		{"bad match", "version: 1\nmatch: regex\n", "PROFILE_VALIDATE_ERROR"},
		{"same entrance and direct", "version: 1\nentrance_group: A\ndirect_group: A\n", "PROFILE_VALIDATE_ERROR"},
		{"negative position", "version: 1\ninsert_position: -1\n", "PROFILE_VALIDATE_ERROR"},
		{"region collides with listener", "version: 1\nregions: [{name: socks 8440}]\n", "PROFILE_VALIDATE_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfileYAML("https://example.com/p.yaml", tt.yml)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.code, pe.AppError.Code)
			assert.Equal(t, "parse_profile", pe.AppError.Stage)
			assert.Equal(t, "https://example.com/p.yaml", pe.AppError.URL)
		})
	}
}

func TestListenerName(t *testing.T) {
	assert.Equal(t, "socks 8440", ListenerName(ListenerSpec{Port: 8440, Type: "socks"}))
}
