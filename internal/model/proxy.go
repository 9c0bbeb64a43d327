package model

// Proxy is a single upstream node. Only Name is interpreted; every
// protocol-specific field is carried through untouched in Options.
type Proxy struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:",inline"`
}

// Listener is a local inbound endpoint bound to an outbound selection group.
//
// Port stays opaque: mihomo accepts a number or a port-range string such as
// "200,302". UDP is a pointer so that an explicit "udp: false" is kept.
type Listener struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Port    any            `yaml:"port,omitempty"`
	Proxy   string         `yaml:"proxy,omitempty"`
	UDP     *bool          `yaml:"udp,omitempty"`
	Listen  string         `yaml:"listen,omitempty"`
	Options map[string]any `yaml:",inline"`
}
