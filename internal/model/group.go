package model

const (
	GroupSelect      = "select"
	GroupURLTest     = "url-test"
	GroupFallback    = "fallback"
	GroupLoadBalance = "load-balance"
)

// Built-in policies that may appear in a group's member list or as a rule
// target without being declared anywhere.
const (
	PolicyDirect = "DIRECT"
	PolicyReject = "REJECT"
)

// ProxyGroup is a named, ordered selection policy over proxies and other
// groups. Member order is significant: it is the client's selection priority.
type ProxyGroup struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Proxies []string `yaml:"proxies"`
	Icon    string   `yaml:"icon,omitempty"`
	URL     string   `yaml:"url,omitempty"`

	// Options keeps keys this tool does not manage (use, filter, interval,
	// lazy, strategy...). They are written back exactly as decoded, so an
	// explicit "lazy: false" survives.
	Options map[string]any `yaml:",inline"`
}

func ValidGroupType(t string) bool {
	switch t {
	case GroupSelect, GroupURLTest, GroupFallback, GroupLoadBalance:
		return true
	default:
		return false
	}
}
