package override

import (
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/profile"
)

// BuildRegionGroups appends one group per region, in order. Members are the
// proxies accepted by classify (every proxy for an unfiltered region); a
// proxy may land in several regions and a region may end up empty.
//
// A region whose name is taken is skipped with a *ConflictError; the others
// are still built. created lists only the groups actually appended. The
// returned error, when non-nil, joins every conflict.
func BuildRegionGroups(cfg model.Config, regions []profile.RegionSpec, classify Classifier) (out model.Config, created []string, err error) {
	if classify == nil {
		classify = MatchSubstring
	}
	out = cfg.Clone()
	var conflicts []error
	for _, r := range regions {
		if owner := nameOwner(out, r.Name); owner != "" {
			conflicts = append(conflicts, conflictError("build_regions", r.Name, owner))
			continue
		}
		code := r.FilterCode
		if code == "" {
			code = r.Name
		}
		members := lo.FilterMap(out.Proxies, func(p model.Proxy, _ int) (string, bool) {
			return p.Name, r.Unfiltered || classify(p.Name, code)
		})
		out.ProxyGroups = append(out.ProxyGroups, model.ProxyGroup{
			Name:    r.Name,
			Type:    r.Type,
			Proxies: members,
			Icon:    r.Icon,
			URL:     r.TestURL,
		})
		created = append(created, r.Name)
	}
	return out, created, multierr.Combine(conflicts...)
}
