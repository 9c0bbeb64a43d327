package profile

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/override-go/internal/model"
)

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

type rawProfile struct {
	Version        int           `yaml:"version"`
	EntranceGroup  string        `yaml:"entrance_group"`
	DirectGroup    string        `yaml:"direct_group"`
	BaseGroups     []string      `yaml:"base_groups"`
	InsertPosition *int          `yaml:"insert_position"`
	LocalPrefix    *string       `yaml:"local_prefix"`
	Listeners      []rawListener `yaml:"listeners"`
	Regions        []rawRegion   `yaml:"regions"`
	Ignore         []string      `yaml:"ignore"`
	TestURL        string        `yaml:"test_url"`
	Match          string        `yaml:"match"`
	Strict         bool          `yaml:"strict"`
}

type rawListener struct {
	Port int    `yaml:"port"`
	Type string `yaml:"type"`
}

type rawRegion struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Icon       string `yaml:"icon"`
	TestURL    string `yaml:"test_url"`
	Filter     string `yaml:"filter"`
	Unfiltered bool   `yaml:"unfiltered"`
}

var allowedListenerTypes = map[string]struct{}{
	"socks": {},
	"http":  {},
	"mixed": {},
}

// ParseProfileYAML parses an override profile, fills every omitted field from
// Default() and validates the result.
//
// stage is always "parse_profile".
func ParseProfileYAML(sourceURL string, content string) (*Spec, error) {
	var rp rawProfile
	if err := yamlDecodeStrict(content, &rp); err != nil {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "PROFILE_PARSE_ERROR",
				Message: "profile YAML 解析失败",
				Stage:   "parse_profile",
				URL:     sourceURL,
				Snippet: truncateSnippet(content, 200),
			},
			Cause: err,
		}
	}

	if rp.Version != 1 {
		return nil, validateError(sourceURL, "profile version 必须为 1", "", "")
	}

	spec := Spec{
		EntranceGroup: strings.TrimSpace(rp.EntranceGroup),
		DirectGroup:   strings.TrimSpace(rp.DirectGroup),
		BaseGroups:    trimAll(rp.BaseGroups),
		Ignore:        trimAll(rp.Ignore),
		TestURL:       strings.TrimSpace(rp.TestURL),
		Match:         strings.TrimSpace(rp.Match),
		Strict:        rp.Strict,
	}
	for _, l := range rp.Listeners {
		spec.Listeners = append(spec.Listeners, ListenerSpec{Port: l.Port, Type: strings.TrimSpace(l.Type)})
	}
	for _, r := range rp.Regions {
		spec.Regions = append(spec.Regions, RegionSpec{
			Name:       strings.TrimSpace(r.Name),
			Type:       strings.TrimSpace(r.Type),
			Icon:       strings.TrimSpace(r.Icon),
			TestURL:    strings.TrimSpace(r.TestURL),
			FilterCode: r.Filter,
			Unfiltered: r.Unfiltered,
		})
	}

	if err := mergo.Merge(&spec, Default()); err != nil {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "PROFILE_VALIDATE_ERROR",
				Message: "profile 默认值合并失败",
				Stage:   "parse_profile",
				URL:     sourceURL,
			},
			Cause: err,
		}
	}

	// mergo treats an empty list or string as unset. A key that is present
	// but empty switches the default off.
	if rp.LocalPrefix != nil {
		spec.LocalPrefix = *rp.LocalPrefix
	}
	if rp.BaseGroups != nil && len(rp.BaseGroups) == 0 {
		spec.BaseGroups = []string{}
	}
	if rp.Listeners != nil && len(rp.Listeners) == 0 {
		spec.Listeners = []ListenerSpec{}
	}
	if rp.Regions != nil && len(rp.Regions) == 0 {
		spec.Regions = []RegionSpec{}
	}

	// A custom base group list moves the default insertion point with it;
	// mergo cannot tell "0" from "unset".
	spec.InsertPosition = len(spec.BaseGroups)
	if rp.InsertPosition != nil {
		spec.InsertPosition = *rp.InsertPosition
	}
	for i := range spec.Regions {
		if spec.Regions[i].Type == "" {
			spec.Regions[i].Type = model.GroupLoadBalance
		}
		if spec.Regions[i].TestURL == "" {
			spec.Regions[i].TestURL = spec.TestURL
		}
	}

	if err := Validate(spec); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.AppError.URL = sourceURL
		}
		return nil, err
	}
	return &spec, nil
}

// Validate checks a fully populated Spec. ParseProfileYAML calls it; callers
// building a Spec in code should call it too.
func Validate(s Spec) error {
	if s.EntranceGroup == "" || s.DirectGroup == "" {
		return validateError("", "entrance_group/direct_group 不能为空", "", "")
	}
	if s.EntranceGroup == s.DirectGroup {
		return validateError("", "entrance_group 与 direct_group 不能相同", s.EntranceGroup, "")
	}
	if isReserved(s.EntranceGroup) || isReserved(s.DirectGroup) {
		return validateError("", "策略组名不能使用保留名 DIRECT/REJECT", s.EntranceGroup+","+s.DirectGroup, "")
	}
	for _, g := range s.BaseGroups {
		if g == "" {
			return validateError("", "base_groups 不能包含空名称", "", "")
		}
	}
	if s.InsertPosition < 0 {
		return validateError("", "insert_position 不能为负数", fmt.Sprintf("%d", s.InsertPosition), "")
	}
	if err := validateHTTPURL(s.TestURL); err != nil {
		return validateError("", "test_url 不合法", s.TestURL, "")
	}
	switch s.Match {
	case MatchSubstring, MatchWord:
	default:
		return validateError("", fmt.Sprintf("不支持的 match：%s", s.Match), s.Match, "expected: substring | word")
	}

	listenerNames := make(map[string]struct{}, len(s.Listeners))
	for _, l := range s.Listeners {
		if l.Port < 1 || l.Port > 65535 {
			return validateError("", "listener 端口必须在 1..65535 之间", fmt.Sprintf("%d", l.Port), "")
		}
		if _, ok := allowedListenerTypes[l.Type]; !ok {
			return validateError("", fmt.Sprintf("不支持的 listener 类型：%s", l.Type), l.Type, "expected: socks | http | mixed")
		}
		name := ListenerName(l)
		if _, ok := listenerNames[name]; ok {
			return validateError("", fmt.Sprintf("重复的 listener：%s", name), name, "")
		}
		listenerNames[name] = struct{}{}
	}

	regionNames := make(map[string]struct{}, len(s.Regions))
	for _, r := range s.Regions {
		if r.Name == "" {
			return validateError("", "region 名称不能为空", "", "")
		}
		if isReserved(r.Name) {
			return validateError("", "策略组名不能使用保留名 DIRECT/REJECT", r.Name, "")
		}
		if _, ok := regionNames[r.Name]; ok {
			return validateError("", fmt.Sprintf("重复的 region 名称：%s", r.Name), r.Name, "")
		}
		if _, ok := listenerNames[r.Name]; ok {
			return validateError("", fmt.Sprintf("region 名称与 listener 冲突：%s", r.Name), r.Name, "")
		}
		regionNames[r.Name] = struct{}{}
		if !model.ValidGroupType(r.Type) {
			return validateError("", fmt.Sprintf("不支持的策略组类型：%s", r.Type), r.Name, "expected: select | url-test | fallback | load-balance")
		}
		if r.TestURL != "" {
			if err := validateHTTPURL(r.TestURL); err != nil {
				return validateError("", fmt.Sprintf("region %s 的 test_url 不合法", r.Name), r.TestURL, "")
			}
		}
	}
	return nil
}

// ListenerName is the deterministic "{type} {port}" name shared by the
// listener and the select group it binds to.
func ListenerName(l ListenerSpec) string {
	return fmt.Sprintf("%s %d", l.Type, l.Port)
}

func validateError(sourceURL, msg, snippet, hint string) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    "PROFILE_VALIDATE_ERROR",
			Message: msg,
			Stage:   "parse_profile",
			URL:     sourceURL,
			Snippet: snippet,
			Hint:    hint,
		},
	}
}

func isReserved(name string) bool {
	return name == model.PolicyDirect || name == model.PolicyReject
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if u == nil || !u.IsAbs() {
		return errors.New("url must be absolute")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http/https")
	}
	return nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
