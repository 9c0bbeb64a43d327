package override

import (
	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/profile"
)

func proxies(names ...string) []model.Proxy {
	out := make([]model.Proxy, 0, len(names))
	for _, n := range names {
		out = append(out, model.Proxy{Name: n, Options: map[string]any{"type": "ss", "server": "127.0.0.1"}})
	}
	return out
}

func group(cfg model.Config, name string) *model.ProxyGroup {
	i := cfg.GroupIndex(name)
	if i < 0 {
		return nil
	}
	return &cfg.ProxyGroups[i]
}

// shortCodes is the default profile with region codes that match names
// like "JP-1".
func shortCodes() profile.Spec {
	s := profile.Default()
	for i := range s.Regions {
		s.Regions[i].FilterCode = s.Regions[i].Name[len(s.Regions[i].Name)-2:]
	}
	return s
}

func scenarioConfig() model.Config {
	return model.Config{
		Proxies: proxies("lo-A", "JP-1", "US-1"),
		ProxyGroups: []model.ProxyGroup{
			{Name: "Proxies", Type: model.GroupSelect, Proxies: []string{}},
			{Name: "🎯Direct", Type: model.GroupSelect, Proxies: []string{}},
		},
	}
}
