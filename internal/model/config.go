package model

// Config is the root of a proxy client configuration. Only the fields below
// are interpreted; every other top-level key (dns, sniffer, providers...) is
// kept in Extra and passed through.
type Config struct {
	Proxies     []Proxy      `yaml:"proxies"`
	ProxyGroups []ProxyGroup `yaml:"proxy-groups"`
	Listeners   []Listener   `yaml:"listeners,omitempty"`
	Rules       []string     `yaml:"rules,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// ProxyNames returns proxy names in declaration order.
func (c Config) ProxyNames() []string {
	out := make([]string, 0, len(c.Proxies))
	for _, p := range c.Proxies {
		out = append(out, p.Name)
	}
	return out
}

// GroupIndex returns the index of the first group named name, or -1.
func (c Config) GroupIndex(name string) int {
	for i, g := range c.ProxyGroups {
		if g.Name == name {
			return i
		}
	}
	return -1
}

func (c Config) HasGroup(name string) bool { return c.GroupIndex(name) >= 0 }

// Clone returns a deep copy. A nil slice stays nil so that "absent" and
// "present but empty" survive the copy.
func (c Config) Clone() Config {
	out := Config{
		Rules: cloneStrings(c.Rules),
		Extra: cloneMap(c.Extra),
	}
	if c.Proxies != nil {
		out.Proxies = make([]Proxy, len(c.Proxies))
		for i, p := range c.Proxies {
			out.Proxies[i] = Proxy{Name: p.Name, Options: cloneMap(p.Options)}
		}
	}
	if c.ProxyGroups != nil {
		out.ProxyGroups = make([]ProxyGroup, len(c.ProxyGroups))
		for i, g := range c.ProxyGroups {
			out.ProxyGroups[i] = g.Clone()
		}
	}
	if c.Listeners != nil {
		out.Listeners = make([]Listener, len(c.Listeners))
		for i, l := range c.Listeners {
			l.Port = cloneValue(l.Port)
			if l.UDP != nil {
				udp := *l.UDP
				l.UDP = &udp
			}
			l.Options = cloneMap(l.Options)
			out.Listeners[i] = l
		}
	}
	return out
}

func (g ProxyGroup) Clone() ProxyGroup {
	g.Proxies = cloneStrings(g.Proxies)
	g.Options = cloneMap(g.Options)
	return g
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case map[any]any:
		out := make(map[any]any, len(x))
		for k, vv := range x {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneValue(vv)
		}
		return out
	case []string:
		return cloneStrings(x)
	default:
		return v
	}
}
