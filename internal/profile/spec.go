package profile

import (
	"github.com/John-Robertt/override-go/internal/model"
)

const DefaultTestURL = "http://www.gstatic.com/generate_204"

const (
	MatchSubstring = "substring"
	MatchWord      = "word"
)

// Spec is an override profile: every name, position and region table the
// pipeline needs, passed in explicitly so that several profiles can be built
// side by side.
type Spec struct {
	EntranceGroup string
	DirectGroup   string

	// BaseGroups are the pre-existing groups that lead every rewired member
	// list. InsertPosition defaults to len(BaseGroups).
	BaseGroups     []string
	InsertPosition int

	LocalPrefix string

	Listeners []ListenerSpec
	Regions   []RegionSpec

	// Ignore lists groups that never receive region groups as members.
	// Empty means "every region group".
	Ignore []string

	TestURL string
	Match   string
	Strict  bool
}

type ListenerSpec struct {
	Port int
	Type string
}

type RegionSpec struct {
	Name    string
	Type    string
	Icon    string
	TestURL string

	// FilterCode is matched against proxy names by the classifier. Empty
	// means "use Name".
	FilterCode string
	Unfiltered bool
}

const iconBase = "https://raw.githubusercontent.com/Orz-3/mini/refs/heads/master/Color/"

// Default returns the built-in profile: a socks listener on 8440 plus
// load-balance and fallback groups for Japan, USA and Hong Kong.
func Default() Spec {
	region := func(name, typ, icon, code string) RegionSpec {
		return RegionSpec{
			Name:       name,
			Type:       typ,
			Icon:       iconBase + icon + ".png",
			TestURL:    DefaultTestURL,
			FilterCode: code,
		}
	}
	return Spec{
		EntranceGroup:  "Proxies",
		DirectGroup:    "🎯Direct",
		BaseGroups:     []string{"Proxies", "🎯Direct"},
		InsertPosition: 2,
		LocalPrefix:    "lo-",
		Listeners:      []ListenerSpec{{Port: 8440, Type: "socks"}},
		Regions: []RegionSpec{
			region("LoB-JP", model.GroupLoadBalance, "JP", "Japan"),
			region("LoB-US", model.GroupLoadBalance, "US", "USA"),
			region("LoB-HK", model.GroupLoadBalance, "HK", "Hong Kong"),
			region("FaB-JP", model.GroupFallback, "JP", "Japan"),
			region("FaB-US", model.GroupFallback, "US", "USA"),
			region("FaB-HK", model.GroupFallback, "HK", "Hong Kong"),
		},
		TestURL: DefaultTestURL,
		Match:   MatchSubstring,
	}
}

func (s Spec) RegionNames() []string {
	out := make([]string, 0, len(s.Regions))
	for _, r := range s.Regions {
		out = append(out, r.Name)
	}
	return out
}

// IgnoreSet returns the groups excluded from membership injection.
func (s Spec) IgnoreSet() map[string]struct{} {
	names := s.Ignore
	if len(names) == 0 {
		names = s.RegionNames()
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
