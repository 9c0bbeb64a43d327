package override

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/override-go/internal/model"
)

// ValidateInput checks what every pass relies on: proxies present, names
// set, and no duplicate proxy or group names.
//
// stage is always "validate_input".
func ValidateInput(cfg model.Config) error {
	const stage = "validate_input"
	if cfg.Proxies == nil {
		return &OverrideError{AppError: model.AppError{
			Code:    "MISSING_PROXIES",
			Message: "配置缺少 proxies",
			Stage:   stage,
			Hint:    "the base config must declare a proxies list (it may be empty)",
		}}
	}
	for i, p := range cfg.Proxies {
		if strings.TrimSpace(p.Name) == "" {
			return overrideError(stage, "CONFIG_VALIDATE_ERROR", fmt.Sprintf("第 %d 个节点缺少 name", i+1), "")
		}
	}
	for i, g := range cfg.ProxyGroups {
		if strings.TrimSpace(g.Name) == "" {
			return overrideError(stage, "CONFIG_VALIDATE_ERROR", fmt.Sprintf("第 %d 个策略组缺少 name", i+1), "")
		}
	}
	if dup := lo.FindDuplicates(cfg.ProxyNames()); len(dup) > 0 {
		return overrideError(stage, "CONFIG_VALIDATE_ERROR", "节点名称重复", strings.Join(dup, ","))
	}
	if dup := lo.FindDuplicates(groupNames(cfg)); len(dup) > 0 {
		return overrideError(stage, "CONFIG_VALIDATE_ERROR", "策略组名称重复", strings.Join(dup, ","))
	}
	return nil
}

// DanglingMember is a group member that names neither a proxy, a group nor a
// built-in policy.
type DanglingMember struct {
	Group  string
	Member string
}

// ValidateOutput checks the transformed config: group names must be unique,
// and every member must resolve. Duplicate names are returned as an error;
// unresolved members are returned for the caller to decide on.
//
// stage is always "validate_output".
func ValidateOutput(cfg model.Config) ([]DanglingMember, error) {
	if dup := lo.FindDuplicates(groupNames(cfg)); len(dup) > 0 {
		return nil, overrideError("validate_output", "GROUP_NAME_CONFLICT", "输出中存在重复的策略组名称", strings.Join(dup, ","))
	}
	known := knownTargets(cfg)
	var out []DanglingMember
	for _, g := range cfg.ProxyGroups {
		for _, m := range g.Proxies {
			if _, ok := known[m]; !ok {
				out = append(out, DanglingMember{Group: g.Name, Member: m})
			}
		}
	}
	return out, nil
}

func groupNames(cfg model.Config) []string {
	return lo.Map(cfg.ProxyGroups, func(g model.ProxyGroup, _ int) string { return g.Name })
}

// builtinPolicies may be referenced without being declared.
var builtinPolicies = []string{model.PolicyDirect, model.PolicyReject, "REJECT-DROP", "PASS", "COMPATIBLE"}

func knownTargets(cfg model.Config) map[string]struct{} {
	out := make(map[string]struct{}, len(builtinPolicies)+len(cfg.Proxies)+len(cfg.ProxyGroups))
	for _, n := range builtinPolicies {
		out[n] = struct{}{}
	}
	for _, p := range cfg.Proxies {
		out[p.Name] = struct{}{}
	}
	for _, g := range cfg.ProxyGroups {
		out[g.Name] = struct{}{}
	}
	return out
}

// nameOwner reports what already uses name in cfg, or "" when it is free.
func nameOwner(cfg model.Config, name string) string {
	switch {
	case cfg.HasGroup(name):
		return "策略组"
	case lo.ContainsBy(cfg.Proxies, func(p model.Proxy) bool { return p.Name == name }):
		return "节点"
	case lo.ContainsBy(cfg.Listeners, func(l model.Listener) bool { return l.Name == name }):
		return "listener"
	default:
		return ""
	}
}
