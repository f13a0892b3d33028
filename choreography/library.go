package choreography

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/hypertone/trigger"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SupportedLibraryVersions is the range of library document versions this build understands.
const SupportedLibraryVersions = ">= 1.0.0, < 2.0.0"

// libraryDoc is the on-disk form of a sequence library. JSON documents parse as YAML flow syntax.
type libraryDoc struct {
	Version   string        `yaml:"version"`
	Sequences []sequenceDoc `yaml:"sequences"`
}

type sequenceDoc struct {
	Name     string     `yaml:"name"`
	Duration float64    `yaml:"duration"`
	Trigger  string     `yaml:"trigger"`
	Stages   []stageDoc `yaml:"stages"`
}

// stageDoc carries its parameter changes as sibling keys of start and duration.
type stageDoc struct {
	Start    float64
	Duration float64
	Changes  map[string]changeDoc
	order    []string
}

func (s *stageDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: stage must be a mapping", node.Line)
	}
	s.Changes = make(map[string]changeDoc)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "start":
			err = val.Decode(&s.Start)
		case "duration":
			err = val.Decode(&s.Duration)
		default:
			var c changeDoc
			err = val.Decode(&c)
			s.Changes[key] = c
			s.order = append(s.order, key)
		}
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", val.Line, key, err)
		}
	}
	return nil
}

// changeDoc accepts {from,to,easing}, {spike,decay}, {jump} or a bare number as a jump.
type changeDoc struct {
	From   *endpointDoc `yaml:"from"`
	To     *endpointDoc `yaml:"to"`
	Easing string       `yaml:"easing"`
	Spike  *float64     `yaml:"spike"`
	Decay  *float64     `yaml:"decay"`
	Jump   *float64     `yaml:"jump"`
}

func (c *changeDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		c.Jump = &v
		return nil
	}
	type plain changeDoc
	return node.Decode((*plain)(c))
}

func (c changeDoc) spec() (ChangeSpec, error) {
	switch {
	case c.Jump != nil:
		if c.Spike != nil || c.From != nil || c.To != nil {
			return nil, fmt.Errorf("jump cannot be combined with other change fields")
		}
		return Jump{To: *c.Jump}, nil
	case c.Spike != nil:
		if c.From != nil || c.To != nil {
			return nil, fmt.Errorf("spike cannot be combined with from/to")
		}
		decay := 0.95
		if c.Decay != nil {
			decay = *c.Decay
		}
		return SpikeDecay{Spike: *c.Spike, Decay: decay}, nil
	case c.To != nil:
		from := Current()
		if c.From != nil {
			from = c.From.endpoint()
		}
		return Interpolate{From: from, To: c.To.endpoint(), Easing: c.Easing}, nil
	default:
		return nil, fmt.Errorf("change needs one of to, spike or jump")
	}
}

type endpointDoc struct {
	value   float64
	current bool
}

func (e *endpointDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Value == "current" {
		e.current = true
		return nil
	}
	return node.Decode(&e.value)
}

func (e *endpointDoc) endpoint() Endpoint {
	if e.current {
		return Current()
	}
	return Fixed(e.value)
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// ParseLibrary decodes and validates a sequence library. Trigger expressions that fail to compile are logged and
// replaced by a predicate that never fires; every other problem fails the whole document with ErrInvalidLibrary.
func ParseLibrary(r io.Reader, log logrus.FieldLogger) ([]Sequence, error) {
	var doc libraryDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	seqs := make([]Sequence, 0, len(doc.Sequences))
	for _, sd := range doc.Sequences {
		pred, err := trigger.CompileOrNever(sd.Trigger)
		if err != nil {
			log.WithFields(logrus.Fields{"sequence": sd.Name, "trigger": sd.Trigger}).
				Warnf("Trigger disabled: %v", err)
		}

		seq := Sequence{Name: sd.Name, Duration: millis(sd.Duration), Trigger: pred}
		for i, st := range sd.Stages {
			stage := Stage{Start: millis(st.Start), Duration: millis(st.Duration), Changes: make(map[string]ChangeSpec)}
			for _, param := range st.order {
				change, err := st.Changes[param].spec()
				if err != nil {
					return nil, fmt.Errorf("%w: sequence %q stage %d: %s: %v", ErrInvalidLibrary, sd.Name, i, param, err)
				}
				stage.Changes[param] = change
			}
			seq.Stages = append(seq.Stages, stage)
		}
		seqs = append(seqs, seq)
	}

	if err := validateAll(seqs); err != nil {
		return nil, err
	}
	return seqs, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidLibrary, v, err)
	}
	c, err := semver.NewConstraint(SupportedLibraryVersions)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if !c.Check(version) {
		return fmt.Errorf("%w: version %s not in %s", ErrInvalidLibrary, version, SupportedLibraryVersions)
	}
	return nil
}

// ReadLibraryFile parses the library at path.
func ReadLibraryFile(path string, log logrus.FieldLogger) ([]Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return ParseLibrary(bytes.NewReader(data), log)
}
