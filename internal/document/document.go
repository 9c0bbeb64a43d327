// Package document decodes a proxy client configuration and writes it back
// with only the keys the override pipeline manages replaced. Every other key
// keeps its position, style and comments.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/override-go/internal/model"
)

const (
	keyProxyGroups = "proxy-groups"
	keyListeners   = "listeners"
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

// Document is a decoded configuration: the raw node tree plus its typed view.
type Document struct {
	root   *yaml.Node
	Config model.Config
}

// Decode parses a single YAML (or JSON) document whose top level is a mapping.
//
// stage is always "parse_config".
func Decode(sourceURL string, text string) (*Document, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		msg := "配置 YAML 解析失败"
		if errors.Is(err, io.EOF) {
			msg = "配置内容为空"
		}
		return nil, parseError(sourceURL, msg, truncateSnippet(text, 200), err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, parseError(sourceURL, "配置不允许包含多个 YAML 文档", "", nil)
	} else if !errors.Is(err, io.EOF) {
		return nil, parseError(sourceURL, "配置 YAML 解析失败", "", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, parseError(sourceURL, "配置顶层必须是映射（mapping）", truncateSnippet(text, 200), nil)
	}

	var cfg model.Config
	if err := root.Decode(&cfg); err != nil {
		return nil, parseError(sourceURL, "配置字段类型不合法", "", err)
	}
	return &Document{root: &root, Config: cfg}, nil
}

// Render writes cfg back into the original document. Only proxy-groups and
// listeners are re-encoded; keys missing from the source are appended.
// The Document itself is left untouched, so Render can be called repeatedly.
func (d *Document) Render(cfg model.Config) ([]byte, error) {
	if d == nil || d.root == nil {
		return Encode(cfg)
	}
	root := cloneNode(d.root)
	mapping := root.Content[0]

	if err := setKey(mapping, keyProxyGroups, cfg.ProxyGroups); err != nil {
		return nil, err
	}
	if cfg.Listeners != nil {
		if err := setKey(mapping, keyListeners, cfg.Listeners); err != nil {
			return nil, err
		}
	}
	return marshal(root)
}

// Encode marshals a configuration that has no source document.
func Encode(cfg model.Config) ([]byte, error) {
	return marshal(cfg)
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func setKey(mapping *yaml.Node, key string, v any) error {
	var value yaml.Node
	if err := value.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			// Keep comments attached to the old value.
			value.HeadComment = mapping.Content[i+1].HeadComment
			value.LineComment = mapping.Content[i+1].LineComment
			mapping.Content[i+1] = &value
			return nil
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&value,
	)
	return nil
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Content != nil {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneNode(c)
		}
	}
	// Alias targets are shared with the original tree; they are never edited.
	return &out
}

func parseError(sourceURL, msg, snippet string, cause error) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    "CONFIG_PARSE_ERROR",
			Message: msg,
			Stage:   "parse_config",
			URL:     sourceURL,
			Snippet: snippet,
		},
		Cause: cause,
	}
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
