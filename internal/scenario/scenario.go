package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mockdev/internal/ioctl"
)

//go:embed schema.cue
var schemaCUE string

// Scenario is a sequence of calls observed on one device.
type Scenario struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Device      string  `yaml:"device" json:"device"`
	Calls       []Call  `yaml:"calls" json:"calls"`
	Expect      *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Call is one observed ioctl. Fields holds the scalar header fields by name;
// absent fields are zero. At most one of Data and Hex may be set.
type Call struct {
	Ioctl  string           `yaml:"ioctl" json:"ioctl"`
	Fields map[string]int64 `yaml:"fields,omitempty" json:"fields,omitempty"`
	Data   *string          `yaml:"data,omitempty" json:"data,omitempty"`
	Hex    *string          `yaml:"hex,omitempty" json:"hex,omitempty"`
}

// Expect holds optional checks on the recorded result. Nil fields are not
// checked.
type Expect struct {
	Nodes      *int    `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Duplicates *int    `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`
	Rejected   *int    `yaml:"rejected,omitempty" json:"rejected,omitempty"`
	Trace      *string `yaml:"trace,omitempty" json:"trace,omitempty"`
}

// Load reads, parses and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document. Unknown keys are
// rejected.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks sc against the schema and the ioctl registry.
func Validate(sc *Scenario) error {
	if sc == nil {
		return errors.New("nil scenario")
	}
	if err := validateSchema(sc); err != nil {
		return err
	}
	for i, call := range sc.Calls {
		if err := validateCall(call); err != nil {
			return fmt.Errorf("calls[%d]: %w", i, err)
		}
	}
	return nil
}

func validateSchema(sc *Scenario) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	v := cctx.Encode(sc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func validateCall(call Call) error {
	t, ok := ioctl.LookupByName(call.Ioctl)
	if !ok {
		return ioctl.NewUnknownNameError(call.Ioctl)
	}

	known := make(map[string]bool)
	for _, f := range t.Fields() {
		known[f] = true
	}
	for name := range call.Fields {
		if !known[name] {
			return fmt.Errorf("%s has no field %q", t.Name(), name)
		}
	}

	_, hasBuffer := t.BufferField()
	switch {
	case call.Data != nil && call.Hex != nil:
		return errors.New("data and hex are mutually exclusive")
	case !hasBuffer && (call.Data != nil || call.Hex != nil):
		return fmt.Errorf("%s carries no payload", t.Name())
	}
	return nil
}
