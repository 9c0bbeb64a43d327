package override

import (
	"slices"

	"github.com/John-Robertt/override-go/internal/model"
)

// RewireGroups replaces the members of every existing group:
//
//	entrance -> every proxy, in declaration order
//	direct   -> DIRECT, entrance
//	others   -> entrance, direct, every proxy
//
// Previous members are discarded.
func RewireGroups(cfg model.Config, entrance, direct string) model.Config {
	out := cfg.Clone()
	names := out.ProxyNames()
	for i := range out.ProxyGroups {
		g := &out.ProxyGroups[i]
		switch g.Name {
		case entrance:
			g.Proxies = slices.Clone(names)
		case direct:
			g.Proxies = []string{model.PolicyDirect, entrance}
		default:
			g.Proxies = append([]string{entrance, direct}, names...)
		}
	}
	return out
}
