package rules

import (
	"errors"
	"testing"
)

func TestParse_Forms(t *testing.T) {
	tests := []struct {
		in      string
		typ     string
		payload string
		target  string
		opts    int
	}{
		{"DOMAIN-SUFFIX,google.com,Proxies", "DOMAIN-SUFFIX", "google.com", "Proxies", 0},
		{"domain,example.com,DIRECT", "DOMAIN", "example.com", "DIRECT", 0},
		{"IP-CIDR,1.1.1.1/32,DIRECT,no-resolve", "IP-CIDR", "1.1.1.1/32", "DIRECT", 1},
		{"IP-CIDR6,2001:db8::/32,REJECT", "IP-CIDR6", "2001:db8::/32", "REJECT", 0},
		{"RULE-SET,private,DIRECT,no-resolve", "RULE-SET", "private", "DIRECT", 1},
		{"GEOIP,CN,🎯Direct", "GEOIP", "CN", "🎯Direct", 0},
		{"MATCH,Proxies", "MATCH", "", "Proxies", 0},
		{"AND,((DOMAIN,baidu.com),(NETWORK,UDP)),REJECT", "AND", "((DOMAIN,baidu.com),(NETWORK,UDP))", "REJECT", 0},
		{"SUB-RULE,(NETWORK,tcp),sub-rule1", "SUB-RULE", "(NETWORK,tcp)", "sub-rule1", 0},
		{"  DST-PORT , 443 , LoB-JP  ", "DST-PORT", "443", "LoB-JP", 0},
	}
	for _, tt := range tests {
		r, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected err: %v", tt.in, err)
		}
		if r.Type != tt.typ || r.Payload != tt.payload || r.Target != tt.target || len(r.Options) != tt.opts {
			t.Fatalf("Parse(%q)=%+v", tt.in, r)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		in   string
		code string
	}{
		{"", "RULE_PARSE_ERROR"},
		{"# comment", "RULE_PARSE_ERROR"},
		{"DOMAIN,example.com", "RULE_PARSE_ERROR"},
		{"IP-CIDR,1.1.1.1/32,no-resolve", "RULE_PARSE_ERROR"},
		{"IP-CIDR,not-a-cidr,DIRECT", "RULE_PARSE_ERROR"},
		{"DOMAIN,a.com,DIRECT,bogus", "RULE_PARSE_ERROR"},
		{"MATCH", "RULE_PARSE_ERROR"},
		{"AND,((DOMAIN,a.com),REJECT", "RULE_PARSE_ERROR"},
		{"AND,DOMAIN,REJECT", "RULE_PARSE_ERROR"},
		{"TELEPATHY,x,DIRECT", "UNSUPPORTED_RULE_TYPE"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		var re *RuleError
		if !errors.As(err, &re) {
			t.Fatalf("Parse(%q): expected *RuleError, got %T: %v", tt.in, err, err)
		}
		if re.Code != tt.code {
			t.Fatalf("Parse(%q) code=%q, want=%q", tt.in, re.Code, tt.code)
		}
	}
}

func TestParseAll_LineNumber(t *testing.T) {
	_, err := ParseAll([]string{"MATCH,DIRECT", "DOMAIN,x.com"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if pe.AppError.Line != 2 || pe.AppError.Stage != "parse_rules" {
		t.Fatalf("line=%d stage=%q", pe.AppError.Line, pe.AppError.Stage)
	}
}
