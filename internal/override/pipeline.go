// Package override turns a base proxy client configuration into the final
// one: listener groups, rewired entrance/direct membership, region groups
// and their placement in every other group.
//
// Each pass takes a model.Config snapshot and returns a new one; the value
// handed to Transform is never modified.
package override

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/profile"
)

// Report describes what a Transform run did.
type Report struct {
	Passes          []string
	Listeners       []string
	CreatedGroups   []string
	Conflicts       []*ConflictError
	DanglingTargets []DanglingTarget
	DanglingMembers []DanglingMember
}

// ConflictNames returns the names of all recorded conflicts.
func (r *Report) ConflictNames() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, c.Name)
	}
	return out
}

// Pass is one named step of the pipeline.
type Pass struct {
	Name  string
	Apply func(cfg model.Config, r *Report) (model.Config, error)
}

type Transformer struct {
	spec     profile.Spec
	classify Classifier
	log      *logger.Logger
}

type Option func(*Transformer)

func WithLogger(l *logger.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClassifier overrides the classifier named by the profile.
func WithClassifier(c Classifier) Option {
	return func(t *Transformer) {
		if c != nil {
			t.classify = c
		}
	}
}

// New validates spec and returns a Transformer for it.
func New(spec profile.Spec, opts ...Option) (*Transformer, error) {
	if err := profile.Validate(spec); err != nil {
		return nil, err
	}
	classify, err := ClassifierFor(spec.Match)
	if err != nil {
		return nil, err
	}
	t := &Transformer{spec: spec, classify: classify, log: logger.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Transformer) Spec() profile.Spec { return t.spec }

// Passes returns the pipeline in execution order.
func (t *Transformer) Passes() []Pass {
	s := t.spec
	passes := []Pass{{
		Name: "validate_input",
		Apply: func(cfg model.Config, _ *Report) (model.Config, error) {
			return cfg, ValidateInput(cfg)
		},
	}}
	for _, l := range s.Listeners {
		passes = append(passes, Pass{
			Name: "inject_listener",
			Apply: func(cfg model.Config, r *Report) (model.Config, error) {
				out, err := InjectListener(cfg, l.Port, l.Type, s.TestURL)
				if err == nil {
					r.Listeners = append(r.Listeners, profile.ListenerName(l))
				}
				return out, err
			},
		})
	}
	passes = append(passes,
		Pass{
			Name: "rewire_groups",
			Apply: func(cfg model.Config, _ *Report) (model.Config, error) {
				return RewireGroups(cfg, s.EntranceGroup, s.DirectGroup), nil
			},
		},
		Pass{
			Name: "build_regions",
			Apply: func(cfg model.Config, r *Report) (model.Config, error) {
				out, created, err := BuildRegionGroups(cfg, s.Regions, t.classify)
				r.CreatedGroups = append(r.CreatedGroups, created...)
				return out, err
			},
		},
		Pass{
			Name: "insert_membership",
			Apply: func(cfg model.Config, r *Report) (model.Config, error) {
				ignore := s.IgnoreSet()
				for _, name := range r.CreatedGroups {
					cfg = InsertIntoGroups(cfg, name, s.InsertPosition, ignore, s.EntranceGroup, s.LocalPrefix)
				}
				return cfg, nil
			},
		},
		Pass{Name: "check_rules", Apply: t.checkRules},
		Pass{Name: "validate_output", Apply: t.validateOutput},
	)
	return passes
}

// Transform runs every pass in order. Conflicts are recorded in the report
// and skipped unless the profile is strict; any other error aborts the run
// and no config is returned.
func (t *Transformer) Transform(cfg model.Config) (model.Config, *Report, error) {
	report := &Report{}
	cur := cfg.Clone()
	for _, p := range t.Passes() {
		t.log.Debug().Str("pass", p.Name).Msg("running pass")
		next, err := p.Apply(cur, report)
		report.Passes = append(report.Passes, p.Name)
		if err != nil {
			conflicts, ok := Conflicts(err)
			if !ok || t.spec.Strict {
				t.log.Debug().Err(err).Str("pass", p.Name).Msg("pass failed")
				return model.Config{}, nil, err
			}
			for _, c := range conflicts {
				t.log.Warn().Str("pass", p.Name).Str("name", c.Name).Msg(c.AppError.Message)
			}
			report.Conflicts = append(report.Conflicts, conflicts...)
		}
		cur = next
	}
	return cur, report, nil
}

func (t *Transformer) checkRules(cfg model.Config, r *Report) (model.Config, error) {
	dangling, unparsed := CheckRuleTargets(cfg)
	for _, pe := range unparsed {
		if t.spec.Strict {
			return cfg, pe
		}
		t.log.Warn().Int("line", pe.AppError.Line).Str("rule", pe.AppError.Snippet).Msg("skipping unparsable rule")
	}
	if len(dangling) == 0 {
		return cfg, nil
	}
	if t.spec.Strict {
		d := dangling[0]
		return cfg, &OverrideError{AppError: model.AppError{
			Code:    "REFERENCE_NOT_FOUND",
			Message: fmt.Sprintf("规则引用了不存在的策略：%s", d.Target),
			Stage:   "check_rules",
			Line:    d.Line,
			Snippet: d.Rule,
		}}
	}
	for _, d := range dangling {
		t.log.Warn().Int("line", d.Line).Str("target", d.Target).Msg("rule target not found")
	}
	r.DanglingTargets = append(r.DanglingTargets, dangling...)
	return cfg, nil
}

func (t *Transformer) validateOutput(cfg model.Config, r *Report) (model.Config, error) {
	dangling, err := ValidateOutput(cfg)
	if err != nil {
		return cfg, err
	}
	if len(dangling) == 0 {
		return cfg, nil
	}
	if t.spec.Strict {
		names := make([]string, 0, len(dangling))
		for _, d := range dangling {
			names = append(names, d.Group+"/"+d.Member)
		}
		return cfg, overrideError("validate_output", "REFERENCE_NOT_FOUND", "策略组成员引用了不存在的节点或策略组", strings.Join(names, ","))
	}
	for _, d := range dangling {
		t.log.Warn().Str("group", d.Group).Str("member", d.Member).Msg("group member not found")
	}
	r.DanglingMembers = append(r.DanglingMembers, dangling...)
	return cfg, nil
}

// Apply transforms cfg with spec in one call.
func Apply(cfg model.Config, spec profile.Spec, opts ...Option) (model.Config, *Report, error) {
	t, err := New(spec, opts...)
	if err != nil {
		return model.Config{}, nil, err
	}
	return t.Transform(cfg)
}
