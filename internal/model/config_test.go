package model

import "testing"

func TestConfigClone_Deep(t *testing.T) {
	orig := Config{
		Proxies: []Proxy{{Name: "A", Options: map[string]any{"type": "ss", "plugin-opts": map[string]any{"mode": "tls"}}}},
		ProxyGroups: []ProxyGroup{
			{Name: "G", Type: GroupSelect, Proxies: []string{"A"}, Options: map[string]any{"use": []any{"p1"}}},
		},
		Extra: map[string]any{"dns": map[string]any{"enable": true}},
	}

	c := orig.Clone()
	c.Proxies[0].Options["plugin-opts"].(map[string]any)["mode"] = "http"
	c.ProxyGroups[0].Proxies[0] = "B"
	c.ProxyGroups[0].Options["use"].([]any)[0] = "p2"
	c.Extra["dns"].(map[string]any)["enable"] = false

	if got := orig.Proxies[0].Options["plugin-opts"].(map[string]any)["mode"]; got != "tls" {
		t.Fatalf("proxy option mutated through clone: %v", got)
	}
	if orig.ProxyGroups[0].Proxies[0] != "A" {
		t.Fatalf("group members mutated through clone: %v", orig.ProxyGroups[0].Proxies)
	}
	if got := orig.ProxyGroups[0].Options["use"].([]any)[0]; got != "p1" {
		t.Fatalf("group option mutated through clone: %v", got)
	}
	if got := orig.Extra["dns"].(map[string]any)["enable"]; got != true {
		t.Fatalf("extra mutated through clone: %v", got)
	}
}

func TestConfigClone_KeepsNilVsEmpty(t *testing.T) {
	c := Config{Proxies: []Proxy{}}.Clone()
	if c.Proxies == nil {
		t.Fatalf("empty proxies became nil")
	}
	if c.Listeners != nil {
		t.Fatalf("absent listeners became non-nil")
	}
}

func TestConfigLookups(t *testing.T) {
	c := Config{
		Proxies:     []Proxy{{Name: "b"}, {Name: "a"}},
		ProxyGroups: []ProxyGroup{{Name: "X"}, {Name: "Y"}},
	}
	names := c.ProxyNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("ProxyNames()=%v", names)
	}
	if c.GroupIndex("Y") != 1 || c.GroupIndex("Z") != -1 {
		t.Fatalf("GroupIndex mismatch")
	}
	if !c.HasGroup("X") || c.HasGroup("x") {
		t.Fatalf("HasGroup mismatch")
	}
}
