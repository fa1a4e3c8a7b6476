package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/loop/internal/casing"
	"github.com/hupe1980/loop/internal/fixtures"
	"github.com/hupe1980/loop/internal/logging"
	"github.com/hupe1980/loop/internal/maputil"
	"github.com/hupe1980/loop/internal/output"
	"github.com/hupe1980/loop/internal/yamlutil"
)

type fixtureOptions struct {
	count         int
	index         int
	set           []string
	overrides     string
	overridesFile string
	wire          bool
	format        string
}

func newFixtureCommand() *cobra.Command {
	opts := &fixtureOptions{}

	cmd := &cobra.Command{
		Use:   "fixture <" + strings.Join(fixtures.Names(), "|") + ">",
		Short: "Generate sample feed data",
		Long: `Generate sample topics, users, posts, or comments from the built-in
templates.

Overrides are deep-merged into the template: nested mappings merge key by
key, while sequences and scalars replace the template value. Keys the
template does not know are ignored. Overrides are applied in this order:
--overrides-file, --overrides, then each --set.

--index suffixes the identifying fields (ids, names, emails) with the
index; --count builds a list suffixed 1..N. --wire prints snake_case keys
as the API sends them.`,
		Example: `  loop fixture post --count 3
  loop fixture user --index 2 --wire
  loop fixture post --set content="Hello" --set actions.votes=3
  loop fixture post --overrides '{"user": {"username": "Alice"}}'`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: fixtures.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.count, "count", 0, "build a list of N fixtures")
	f.IntVar(&opts.index, "index", 0, "suffix identifying fields with this index")
	f.StringArrayVar(&opts.set, "set", nil, "override a field (path=value, dotted path, YAML value)")
	f.StringVar(&opts.overrides, "overrides", "", "overrides as a JSON object")
	f.StringVar(&opts.overridesFile, "overrides-file", "", "YAML file with overrides")
	f.BoolVar(&opts.wire, "wire", false, "emit snake_case keys")
	f.StringVarP(&opts.format, "output", "o", output.FormatJSON, "output format: json, yaml")
	cmd.MarkFlagsMutuallyExclusive("count", "index")

	return cmd
}

func runFixture(cmd *cobra.Command, kind string, opts *fixtureOptions) error {
	if err := output.ValidateFormat(opts.format, output.FormatJSON, output.FormatYAML); err != nil {
		return usageError(err)
	}

	if opts.count < 0 || opts.index < 0 {
		return usageError(fmt.Errorf("--count and --index must not be negative"))
	}

	fac, err := fixtures.ByName(kind)
	if err != nil {
		return usageError(err)
	}

	overrides, err := opts.collectOverrides()
	if err != nil {
		return usageError(err)
	}

	logger := logging.FromContext(cmd.Context())
	for _, key := range unknownKeys(fac.Template(), overrides, "") {
		logger.Warn("override ignored: not a field of the template", "kind", kind, "key", key)
	}

	var v any

	switch {
	case opts.count > 0:
		list := fac.BuildList(opts.count, overrides)
		items := make([]any, len(list))

		for i, m := range list {
			items[i] = m
		}

		v = items
	case opts.index > 0:
		v = fac.BuildAt(overrides, opts.index)
	default:
		v = fac.Build(overrides)
	}

	if opts.wire {
		v = casing.ToSnakeCase(v)
	}

	data, err := output.Serialize(v, opts.format)
	if err != nil {
		return err
	}

	return output.NewStreamWriter(cmd.OutOrStdout()).Write(data)
}

// collectOverrides combines the override sources in precedence order.
func (o *fixtureOptions) collectOverrides() (map[string]any, error) {
	overrides := map[string]any{}

	if o.overridesFile != "" {
		data, err := os.ReadFile(o.overridesFile)
		if err != nil {
			return nil, fmt.Errorf("reading overrides file: %w", err)
		}

		m, err := yamlutil.DecodeMapping(data)
		if err != nil {
			return nil, fmt.Errorf("overrides file %s: %w", o.overridesFile, err)
		}

		overrides = deepUnion(overrides, m)
	}

	if o.overrides != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(o.overrides), &m); err != nil {
			return nil, fmt.Errorf("--overrides must be a JSON object: %w", err)
		}

		overrides = deepUnion(overrides, m)
	}

	for _, kv := range o.set {
		m, err := parseSet(kv)
		if err != nil {
			return nil, err
		}

		overrides = deepUnion(overrides, m)
	}

	return overrides, nil
}

// parseSet turns "a.b=value" into {"a": {"b": value}}. The value is parsed
// as a YAML scalar or flow collection, so "3" is a number and "[]" an empty
// sequence. Quote it to force a string; an empty value is "".
func parseSet(kv string) (map[string]any, error) {
	path, raw, ok := strings.Cut(kv, "=")
	if !ok || path == "" {
		return nil, fmt.Errorf("invalid --set %q: expected path=value", kv)
	}

	var value any = raw

	if raw != "" {
		var parsed any
		if err := yaml.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", kv, err)
		}

		value = parsed
	}

	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("invalid --set %q: empty path segment", kv)
		}
	}

	for i := len(keys) - 1; i > 0; i-- {
		value = map[string]any{keys[i]: value}
	}

	return map[string]any{keys[0]: value}, nil
}

// deepUnion returns dst with src laid over it. Unlike factory.Merge it keeps
// keys missing from dst, so override sources can be stacked.
func deepUnion(dst, src map[string]any) map[string]any {
	out := maputil.DeepCopyMap(dst)

	for k, sv := range src {
		if dv, ok := out[k]; ok && maputil.IsObject(dv) && maputil.IsObject(sv) {
			out[k] = deepUnion(dv.(map[string]any), sv.(map[string]any))
			continue
		}

		out[k] = sv
	}

	return out
}

// unknownKeys lists override paths that factory.Merge will drop.
func unknownKeys(template, overrides map[string]any, prefix string) []string {
	var out []string

	for _, k := range maputil.SortedKeys(overrides) {
		tv, ok := template[k]
		if !ok {
			out = append(out, prefix+k)
			continue
		}

		if maputil.IsObject(tv) && maputil.IsObject(overrides[k]) {
			out = append(out, unknownKeys(tv.(map[string]any), overrides[k].(map[string]any), prefix+k+".")...)
		}
	}

	sort.Strings(out)

	return out
}
