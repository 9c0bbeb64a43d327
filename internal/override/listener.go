package override

import (
	"github.com/samber/lo"

	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/profile"
)

const listenAll = "0.0.0.0"

// InjectListener adds a local inbound listener named "{protocolType} {port}"
// together with a select group of the same name holding every proxy. The
// listener binds to that group.
//
// When the name is already taken the input is returned as is, with a
// *ConflictError.
func InjectListener(cfg model.Config, port int, protocolType, testURL string) (model.Config, error) {
	name := profile.ListenerName(profile.ListenerSpec{Port: port, Type: protocolType})
	if owner := nameOwner(cfg, name); owner != "" {
		return cfg, conflictError("inject_listener", name, owner)
	}

	out := cfg.Clone()
	if out.Listeners == nil {
		out.Listeners = []model.Listener{}
	}
	out.ProxyGroups = append(out.ProxyGroups, model.ProxyGroup{
		Name:    name,
		Type:    model.GroupSelect,
		Proxies: out.ProxyNames(),
		URL:     testURL,
	})
	out.Listeners = append(out.Listeners, model.Listener{
		Name:   name,
		Type:   protocolType,
		Port:   port,
		Proxy:  name,
		UDP:    lo.ToPtr(true),
		Listen: listenAll,
	})
	return out, nil
}
