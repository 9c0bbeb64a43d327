package rules

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/John-Robertt/override-go/internal/model"
)

type RuleError struct {
	Code    string
	Message string
	Hint    string
	Cause   error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *RuleError) Unwrap() error { return e.Cause }

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

var knownTypes = map[string]struct{}{
	"DOMAIN": {}, "DOMAIN-SUFFIX": {}, "DOMAIN-KEYWORD": {}, "DOMAIN-WILDCARD": {}, "DOMAIN-REGEX": {},
	"GEOSITE": {}, "GEOIP": {}, "SRC-GEOIP": {}, "IP-ASN": {}, "SRC-IP-ASN": {},
	"IP-CIDR": {}, "IP-CIDR6": {}, "SRC-IP-CIDR": {}, "IP-SUFFIX": {}, "SRC-IP-SUFFIX": {},
	"SRC-PORT": {}, "DST-PORT": {}, "IN-PORT": {}, "IN-TYPE": {}, "IN-USER": {}, "IN-NAME": {},
	"PROCESS-PATH": {}, "PROCESS-PATH-REGEX": {}, "PROCESS-NAME": {}, "PROCESS-NAME-REGEX": {},
	"UID": {}, "NETWORK": {}, "DSCP": {}, "RULE-SET": {}, "URL-REGEX": {},
}

// Options that may trail TYPE,PAYLOAD,TARGET.
var knownOptions = map[string]struct{}{
	"no-resolve": {},
	"src":        {},
}

// Parse parses one rule line of a Clash/mihomo "rules" list:
//
//	TYPE,PAYLOAD,TARGET[,OPTION...]
//	MATCH,TARGET
//	AND|OR|NOT,((TYPE,PAYLOAD),...),TARGET
//	SUB-RULE,(TYPE,PAYLOAD),SUB_RULE_NAME
//
// Commas inside parentheses do not split fields.
func Parse(line string) (model.Rule, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is empty"}
	}
	if strings.HasPrefix(line, "#") {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is comment"}
	}

	parts, err := splitTopLevel(line)
	if err != nil {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则括号不匹配",
			Hint:    "expected: AND,((TYPE,VALUE),(TYPE,VALUE)),TARGET",
			Cause:   err,
		}
	}
	if parts[0] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则类型不能为空"}
	}

	typ := strings.ToUpper(parts[0])
	switch typ {
	case "MATCH":
		if len(parts) != 2 || parts[1] == "" {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: "MATCH 规则必须是 MATCH,<TARGET>",
			}
		}
		return model.Rule{Type: "MATCH", Target: parts[1]}, nil
	case "AND", "OR", "NOT", "SUB-RULE":
		if len(parts) != 3 || parts[2] == "" {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 规则字段数量不合法", typ),
				Hint:    "expected: " + typ + ",(...),TARGET",
			}
		}
		body := parts[1]
		if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 规则的条件必须用括号包裹", typ),
			}
		}
		return model.Rule{Type: typ, Payload: body, Target: parts[2]}, nil
	}

	if _, ok := knownTypes[typ]; !ok {
		return model.Rule{}, &RuleError{
			Code:    "UNSUPPORTED_RULE_TYPE",
			Message: fmt.Sprintf("不支持的规则类型：%s", typ),
		}
	}
	if len(parts) < 3 {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则缺少 TARGET",
			Hint:    "expected: TYPE,VALUE,TARGET[,no-resolve]",
		}
	}
	if parts[1] == "" || parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则 VALUE/TARGET 不能为空"}
	}
	if _, ok := knownOptions[strings.ToLower(parts[2])]; ok {
		// "IP-CIDR,1.1.1.1/32,no-resolve": option given, target missing.
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则缺少 TARGET（不允许仅写可选项）",
			Hint:    "expected: TYPE,VALUE,TARGET[,no-resolve]",
		}
	}

	var opts []string
	for _, o := range parts[3:] {
		lo := strings.ToLower(o)
		if _, ok := knownOptions[lo]; !ok {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("不支持的规则可选项：%s", o),
				Hint:    "supported: no-resolve, src",
			}
		}
		opts = append(opts, lo)
	}

	if typ == "IP-CIDR" || typ == "IP-CIDR6" || typ == "SRC-IP-CIDR" {
		if _, err := netip.ParsePrefix(parts[1]); err != nil {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的 CIDR 不合法", typ),
				Hint:    "expected: CIDR, e.g. 1.2.3.4/32 or 2001:db8::/32",
				Cause:   err,
			}
		}
	}

	return model.Rule{Type: typ, Payload: parts[1], Target: parts[2], Options: opts}, nil
}

// ParseAll parses a rules list. Failures carry the 1-based line number.
//
// stage is always "parse_rules".
func ParseAll(lines []string) ([]model.Rule, error) {
	out := make([]model.Rule, 0, len(lines))
	for i, raw := range lines {
		r, err := ParseAt(i+1, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseAt parses one entry of a rules list and reports failures as a
// *ParseError carrying line.
func ParseAt(line int, raw string) (model.Rule, error) {
	r, err := Parse(raw)
	if err == nil {
		return r, nil
	}
	var rerr *RuleError
	if errors.As(err, &rerr) {
		return model.Rule{}, &ParseError{
			AppError: model.AppError{
				Code:    rerr.Code,
				Message: rerr.Message,
				Stage:   "parse_rules",
				Line:    line,
				Snippet: truncateSnippet(raw, 200),
				Hint:    rerr.Hint,
			},
			Cause: rerr.Cause,
		}
	}
	return model.Rule{}, &ParseError{
		AppError: model.AppError{
			Code:    "RULE_PARSE_ERROR",
			Message: "invalid rule line",
			Stage:   "parse_rules",
			Line:    line,
			Snippet: truncateSnippet(raw, 200),
		},
		Cause: err,
	}
}

func splitTopLevel(line string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.New("unexpected ')'")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(line[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unclosed '('")
	}
	parts = append(parts, strings.TrimSpace(line[start:]))
	return parts, nil
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
