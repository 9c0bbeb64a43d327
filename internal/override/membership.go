package override

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/override-go/internal/model"
)

// InsertIntoGroups inserts groupName into every group not in ignore.
//
// The index is basePosition plus the number of proxies whose name starts
// with localPrefix, so local nodes always stay first. The entrance group
// skips basePosition. Indexes past the end of a member list are clamped.
func InsertIntoGroups(cfg model.Config, groupName string, basePosition int, ignore map[string]struct{}, entrance, localPrefix string) model.Config {
	out := cfg.Clone()

	localCount := 0
	if localPrefix != "" {
		localCount = lo.CountBy(out.Proxies, func(p model.Proxy) bool {
			return strings.HasPrefix(p.Name, localPrefix)
		})
	}

	// Targets are fixed before anything is inserted.
	targets := lo.Filter(lo.Range(len(out.ProxyGroups)), func(i int, _ int) bool {
		_, skip := ignore[out.ProxyGroups[i].Name]
		return !skip
	})

	for _, i := range targets {
		g := &out.ProxyGroups[i]
		at := basePosition + localCount
		if g.Name == entrance {
			at = localCount
		}
		at = min(max(at, 0), len(g.Proxies))
		g.Proxies = slices.Insert(g.Proxies, at, groupName)
	}
	return out
}
