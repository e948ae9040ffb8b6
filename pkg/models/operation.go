package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input is one input to an operation: a store path together with a
// content-hash fingerprint of the file at the time the operation ran.
type Input struct {
	Path StorePath
	Hash string
}

// ParseInput parses the compact `path@hash` serialized form (hash optional).
func ParseInput(s string) (Input, error) {
	parts := strings.Split(s, "@")
	switch len(parts) {
	case 1:
		p, err := NewStorePath(parts[0])
		if err != nil {
			return Input{}, err
		}
		return Input{Path: p}, nil
	case 2:
		p, err := NewStorePath(parts[0])
		if err != nil {
			return Input{}, err
		}
		return Input{Path: p, Hash: parts[1]}, nil
	default:
		return Input{}, NewInvalidInput("invalid input fingerprint, want path@hash: %s", s)
	}
}

func (in Input) String() string {
	if in.Hash == "" {
		return string(in.Path)
	}
	return fmt.Sprintf("%s@%s", in.Path, in.Hash)
}

// Equal reports whether two inputs refer to the same content. When both
// carry hashes, only the hashes are compared, so a renamed file with
// unchanged content still matches.
func (in Input) Equal(other Input) bool {
	if in.Hash != "" && other.Hash != "" {
		return in.Hash == other.Hash
	}
	if in.Hash == "" && other.Hash == "" {
		return in.Path == other.Path
	}
	return false
}

// MarshalYAML serializes the input in its compact `path@hash` form.
func (in Input) MarshalYAML() (any, error) {
	return in.String(), nil
}

// UnmarshalYAML parses the compact `path@hash` form.
func (in *Input) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseInput(s)
	if err != nil {
		return err
	}
	*in = parsed
	return nil
}

// Operation records a single action execution: the action name together
// with the ordered, fingerprinted inputs it ran against. The spelled-out
// form doubles as the memoization cache key: changing any input's content
// or the argument order yields a different operation.
type Operation struct {
	ActionName string  `yaml:"action_name"`
	Arguments  []Input `yaml:"arguments,omitempty"`
}

func (op Operation) String() string {
	args := make([]string, len(op.Arguments))
	for i, a := range op.Arguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", op.ActionName, strings.Join(args, ", "))
}

// WithArgument returns a copy of the operation narrowed to the single
// argument at index i, used when an action logically ran per item.
func (op Operation) WithArgument(i int) Operation {
	if i < 0 || i >= len(op.Arguments) {
		return Operation{ActionName: op.ActionName}
	}
	return Operation{ActionName: op.ActionName, Arguments: []Input{op.Arguments[i]}}
}

// Source is a provenance record attached to an item's history: the
// operation that produced it and which of the operation's outputs it was.
type Source struct {
	Operation Operation `yaml:"operation"`
	OutputNum int       `yaml:"output_num"`
}

func (s Source) String() string {
	return fmt.Sprintf("%s[%d]", s.Operation, s.OutputNum)
}

// MergeHistory concatenates history lists, dropping duplicate entries
// (compared by their string form) while preserving first-seen order.
func MergeHistory(lists ...[]Source) []Source {
	seen := make(map[string]struct{})
	var out []Source
	for _, list := range lists {
		for _, src := range list {
			key := src.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, src)
		}
	}
	return out
}
