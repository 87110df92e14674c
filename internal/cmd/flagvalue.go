package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// optionalValue binds a flag to an Optional target. The target is only written
// by apply, after any definition file has been decoded, so a flag given on the
// command line wins over the file and a flag left unset leaves the target alone.
type optionalValue[V any] struct {
	target *m.Optional[V]
	value  V
	set    bool
	typ    string
	parse  func(prev V, s string) (V, error)
	format func(V) string
}

func (o *optionalValue[V]) String() string {
	if !o.set {
		return ""
	}
	return o.format(o.value)
}

func (o *optionalValue[V]) Set(s string) error {
	v, err := o.parse(o.value, s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func (o *optionalValue[V]) Type() string { return o.typ }

func (o *optionalValue[V]) apply() {
	if o.set {
		*o.target = m.Some(o.value)
	}
}

type flagApplier interface {
	apply()
}

// applyFlags copies every flag given on the command line into its target.
func applyFlags(fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if a, ok := f.Value.(flagApplier); ok {
			a.apply()
		}
	})
}

func optString(fs *pflag.FlagSet, target *m.Optional[string], name, usage string) {
	fs.Var(&optionalValue[string]{
		target: target,
		typ:    "string",
		parse:  func(_ string, s string) (string, error) { return s, nil },
		format: func(v string) string { return v },
	}, name, usage)
}

func optBool(fs *pflag.FlagSet, target *m.Optional[bool], name, usage string) {
	fs.Var(&optionalValue[bool]{
		target: target,
		typ:    "bool",
		parse:  func(_ bool, s string) (bool, error) { return strconv.ParseBool(s) },
		format: strconv.FormatBool,
	}, name, usage)
	fs.Lookup(name).NoOptDefVal = "true"
}

func optInt32(fs *pflag.FlagSet, target *m.Optional[int32], name, usage string) {
	fs.Var(&optionalValue[int32]{
		target: target,
		typ:    "int32",
		parse: func(_ int32, s string) (int32, error) {
			n, err := strconv.ParseInt(s, 10, 32)
			return int32(n), err
		},
		format: func(v int32) string { return strconv.FormatInt(int64(v), 10) },
	}, name, usage)
}

// optStringSlice accumulates repeated flags.
func optStringSlice(fs *pflag.FlagSet, target *m.Optional[[]string], name, usage string) {
	fs.Var(&optionalValue[[]string]{
		target: target,
		typ:    "strings",
		parse: func(prev []string, s string) ([]string, error) {
			return append(prev, s), nil
		},
		format: func(v []string) string { return strings.Join(v, ",") },
	}, name, usage)
}

// optStringMap accumulates repeated key=value flags.
func optStringMap(fs *pflag.FlagSet, target *m.Optional[map[string]string], name, usage string) {
	fs.Var(&optionalValue[map[string]string]{
		target: target,
		typ:    "key=value",
		parse: func(prev map[string]string, s string) (map[string]string, error) {
			k, v, ok := strings.Cut(s, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("expected key=value, got %q", s)
			}
			if prev == nil {
				prev = make(map[string]string)
			}
			prev[strings.TrimSpace(k)] = v
			return prev, nil
		},
		format: func(v map[string]string) string {
			pairs := make([]string, 0, len(v))
			for k, val := range v {
				pairs = append(pairs, k+"="+val)
			}
			sort.Strings(pairs)
			return strings.Join(pairs, ",")
		},
	}, name, usage)
}

// useAliases resolves deprecated flag names through aliases and mentions them
// in the help text of their current flag.
func useAliases(fs *pflag.FlagSet, aliases m.Aliases) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		to, _ := aliases.Resolve(name)
		return pflag.NormalizedName(to)
	})
	fs.VisitAll(func(f *pflag.Flag) {
		old := aliases.Deprecated(f.Name)
		if len(old) == 0 {
			return
		}
		sort.Strings(old)
		f.Usage += " (formerly --" + strings.Join(old, ", --") + ")"
	})
}
