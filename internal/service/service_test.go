package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/override-go/internal/document"
	"github.com/John-Robertt/override-go/internal/fetch"
	"github.com/John-Robertt/override-go/internal/override"
	"github.com/John-Robertt/override-go/internal/profile"
)

const baseConfig = `mixed-port: 7890
proxies:
  - {name: lo-A, type: socks5, server: 192.168.1.2, port: 1080}
  - {name: JP-1, type: ss, server: jp.example.com, port: 8388, cipher: aes-128-gcm, password: x}
  - {name: US-1, type: ss, server: us.example.com, port: 8388, cipher: aes-128-gcm, password: x}
proxy-groups:
  - {name: Proxies, type: select, proxies: []}
  - {name: 🎯Direct, type: select, proxies: []}
rules:
  - MATCH,Proxies
`

const shortProfile = `version: 1
regions:
  - {name: LoB-JP, type: load-balance, filter: JP}
  - {name: LoB-US, type: load-balance, filter: US}
`

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/base.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(baseConfig))
	})
	mux.HandleFunc("/profile.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(shortProfile))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func groupsOf(t *testing.T, out []byte) map[string][]string {
	t.Helper()
	doc, err := document.Decode("", string(out))
	require.NoError(t, err)
	m := map[string][]string{}
	for _, g := range doc.Config.ProxyGroups {
		m[g.Name] = g.Proxies
	}
	return m
}

// TestOverride_Remote fetches both inputs and renders the result.
func TestOverride_Remote(t *testing.T) {
	up := newUpstream(t)
	s, err := New(profile.Default(), fetch.Options{})
	require.NoError(t, err)

	res, err := s.Override(context.Background(), Request{
		ConfigURL:  up.URL + "/base.yaml",
		ProfileURL: up.URL + "/profile.yaml",
	})
	require.NoError(t, err)

	groups := groupsOf(t, res.YAML)
	assert.Equal(t, []string{"JP-1"}, groups["LoB-JP"])
	assert.Equal(t, []string{"lo-A", "LoB-US", "LoB-JP", "JP-1", "US-1"}, groups["Proxies"])
	assert.Contains(t, groups, "socks 8440")
	assert.Equal(t, []string{"LoB-JP", "LoB-US"}, res.Report.CreatedGroups)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(res.YAML, &raw))
	assert.Equal(t, 7890, raw["mixed-port"])
	assert.Contains(t, raw, "listeners")
}

// TestOverride_InlineDefaults uses inline config text and the default profile.
func TestOverride_InlineDefaults(t *testing.T) {
	s, err := New(profile.Default(), fetch.Options{})
	require.NoError(t, err)

	res, err := s.Override(context.Background(), Request{ConfigText: baseConfig})
	require.NoError(t, err)
	groups := groupsOf(t, res.YAML)
	assert.Len(t, groups, 9)
	assert.Empty(t, groups["LoB-JP"], "default codes match full country names")
}

// TestOverride_StrictFromRequest turns a conflict into an error.
func TestOverride_StrictFromRequest(t *testing.T) {
	s, err := New(profile.Default(), fetch.Options{})
	require.NoError(t, err)

	text := baseConfig + "listeners:\n  - {name: socks 8440, type: socks, port: 8440}\n"
	res, err := s.Override(context.Background(), Request{ConfigText: text})
	require.NoError(t, err)
	assert.Equal(t, []string{"socks 8440"}, res.Report.ConflictNames())

	_, err = s.Override(context.Background(), Request{ConfigText: text, Strict: true})
	var ce *override.ConflictError
	assert.ErrorAs(t, err, &ce)
}

// TestOverride_Errors surfaces the typed error of the failing stage.
func TestOverride_Errors(t *testing.T) {
	up := newUpstream(t)
	s, err := New(profile.Default(), fetch.Options{})
	require.NoError(t, err)

	_, err = s.Override(context.Background(), Request{ConfigURL: up.URL + "/missing"})
	var fe *fetch.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "fetch_config", fe.AppError.Stage)

	_, err = s.Override(context.Background(), Request{ConfigText: baseConfig, ProfileText: "version: 2\n"})
	var pe *profile.ParseError
	require.ErrorAs(t, err, &pe)

	_, err = s.Override(context.Background(), Request{ConfigText: "mixed-port: 1\n"})
	var oe *override.OverrideError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "MISSING_PROXIES", oe.AppError.Code)

	_, err = s.Override(context.Background(), Request{ConfigText: "- a\n"})
	var de *document.ParseError
	require.ErrorAs(t, err, &de)
}

// TestNew_RejectsInvalidDefaults validates the fallback profile up front.
func TestNew_RejectsInvalidDefaults(t *testing.T) {
	spec := profile.Default()
	spec.Match = "regex"
	_, err := New(spec, fetch.Options{})
	assert.Error(t, err)
}
