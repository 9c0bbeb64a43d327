package model

type Rule struct {
	Type    string   // e.g. "DOMAIN-SUFFIX", "RULE-SET", "AND", "MATCH"
	Payload string   // domain/cidr/provider name/logical body; empty for MATCH
	Target  string   // DIRECT/REJECT/group name/proxy name
	Options []string // trailing flags such as "no-resolve" or "src"
}
