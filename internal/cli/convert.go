package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/casing"
	"github.com/hupe1980/loop/internal/config"
	"github.com/hupe1980/loop/internal/diff"
	"github.com/hupe1980/loop/internal/logging"
	"github.com/hupe1980/loop/internal/output"
	"github.com/hupe1980/loop/internal/watch"
	"github.com/hupe1980/loop/internal/yamlutil"
)

// Target casings.
const (
	caseSnake = "snake"
	caseCamel = "camel"
)

type convertOptions struct {
	to       string
	from     string
	format   string
	selector string
	outFile  string
	diff     bool
	watch    bool
	debounce time.Duration
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert the keys of JSON or YAML documents between camelCase and snake_case",
		Long: `Convert rewrites every mapping key of every document, at any depth,
between the camelCase view model and the snake_case wire format. Values
are never touched.

Input is read from the file argument, or stdin when it is omitted or "-".
YAML input may contain several documents separated by "---"; JSON input
may contain several concatenated values. Each document is converted on
its own.

--select applies a JSONPath expression to each document first and
converts only what it matches. --diff prints a unified diff of input and
output instead of the output. --watch re-runs the conversion whenever the
file changes and reports keys that appeared, vanished, or changed type.`,
		Example: `  loop convert post.json --to snake
  cat payload.yaml | loop convert --to camel -o json
  loop convert feed.json --to snake --select '$[*].actions'
  loop convert post.yaml --to snake --diff
  loop convert post.json --to snake --watch --out-file post.wire.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 && args[0] != "-" {
				file = args[0]
			}

			return runConvert(cmd, file, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.to, "to", caseSnake, "target key case: snake, camel")
	f.StringVar(&opts.from, "from", "", "input format: json, yaml (default: from the file extension, yaml for stdin)")
	f.StringVarP(&opts.format, "output", "o", "", "output format: json, yaml (default: the input format)")
	f.StringVar(&opts.selector, "select", "", "JSONPath applied to each document before conversion")
	f.StringVar(&opts.outFile, "out-file", "", "write the result to a file instead of stdout")
	f.BoolVar(&opts.diff, "diff", false, "print a unified diff of input and output")
	f.BoolVar(&opts.watch, "watch", false, "re-run when the input file changes")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a re-run in watch mode")

	return cmd
}

func runConvert(cmd *cobra.Command, file string, opts *convertOptions) error {
	c, err := newConverter(file, opts)
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	c.in = cmd.InOrStdin()
	c.out = cmd.OutOrStdout()
	c.color = !cfg.NoColor
	c.writer = output.NewWriter(opts.outFile, c.out, logger)

	if !opts.watch {
		_, err := c.run()
		return err
	}

	wopts := watch.DefaultOptions()
	wopts.Files = []string{file}
	wopts.Debounce = opts.debounce
	wopts.Logger = logger
	wopts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, wopts, func(context.Context) (*watch.RunResult, error) {
		docs, err := c.run()
		if err != nil {
			return nil, err
		}

		return &watch.RunResult{Documents: len(docs), Paths: keyPaths(docs)}, nil
	})
}

// converter holds one resolved convert invocation.
type converter struct {
	file     string
	from     string
	format   string
	to       func(any) any
	toName   string
	selector jp.Expr
	diff     bool

	in     io.Reader
	out    io.Writer
	color  bool
	writer output.Writer
}

func newConverter(file string, opts *convertOptions) (*converter, error) {
	c := &converter{file: file, toName: opts.to, diff: opts.diff}

	switch opts.to {
	case caseSnake:
		c.to = casing.ToSnakeCase
	case caseCamel:
		c.to = casing.ToCamelCase
	default:
		return nil, fmt.Errorf("unsupported target case %q: must be one of [%s %s]", opts.to, caseSnake, caseCamel)
	}

	c.from = opts.from
	if c.from == "" {
		c.from = detectFormat(file)
	}

	if err := output.ValidateFormat(c.from, output.FormatJSON, output.FormatYAML); err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}

	c.format = opts.format
	if c.format == "" {
		c.format = c.from
	}

	if err := output.ValidateFormat(c.format, output.FormatJSON, output.FormatYAML); err != nil {
		return nil, err
	}

	if opts.selector != "" {
		x, err := jp.ParseString(opts.selector)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath %q: %w", opts.selector, err)
		}

		c.selector = x
	}

	if opts.watch {
		if file == "" {
			return nil, errors.New("--watch needs a file argument")
		}

		if opts.debounce <= 0 {
			return nil, fmt.Errorf("--debounce must be positive, got %s", opts.debounce)
		}
	}

	return c, nil
}

func detectFormat(file string) string {
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return output.FormatJSON
	}

	return output.FormatYAML
}

// run converts the input once and writes the result. It returns the
// converted documents.
func (c *converter) run() ([]any, error) {
	data, err := c.read()
	if err != nil {
		return nil, err
	}

	docs, err := c.decode(data)
	if err != nil {
		return nil, err
	}

	if c.selector != nil {
		if docs, err = c.selectAll(docs); err != nil {
			return nil, err
		}
	}

	converted := make([]any, len(docs))
	for i, d := range docs {
		converted[i] = c.to(d)
	}

	rendered, err := output.SerializeDocuments(converted, c.format)
	if err != nil {
		return nil, err
	}

	if c.diff {
		return converted, c.writeDiff(docs, rendered)
	}

	return converted, c.writer.Write(rendered)
}

func (c *converter) read() ([]byte, error) {
	if c.file == "" {
		data, err := io.ReadAll(c.in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(c.file)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return data, nil
}

func (c *converter) decode(data []byte) ([]any, error) {
	if c.from == output.FormatYAML {
		docs, err := yamlutil.DecodeDocuments(data)
		if err != nil {
			return nil, fmt.Errorf("parsing YAML input: %w", err)
		}

		return docs, nil
	}

	return decodeJSONStream(data)
}

// decodeJSONStream decodes concatenated JSON values.
func decodeJSONStream(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var docs []any

	for {
		var v any

		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}

		if err != nil {
			return nil, fmt.Errorf("parsing JSON input (document %d): %w", len(docs)+1, err)
		}

		docs = append(docs, v)
	}
}

// selectAll replaces each document by what the selector matches: the value
// itself for a single match, a sequence of matches otherwise.
func (c *converter) selectAll(docs []any) ([]any, error) {
	out := make([]any, 0, len(docs))

	for i, d := range docs {
		matches := c.selector.Get(d)

		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%s matched nothing in document %d", c.selector, i+1)
		case 1:
			out = append(out, matches[0])
		default:
			out = append(out, matches)
		}
	}

	return out, nil
}

func (c *converter) writeDiff(input []any, rendered []byte) error {
	before, err := output.SerializeDocuments(input, c.format)
	if err != nil {
		return err
	}

	label := c.file
	if label == "" {
		label = "stdin"
	}

	res, err := diff.Compute(string(before), string(rendered), diff.Options{
		OldLabel: label,
		NewLabel: label + " (" + c.toName + ")",
		Context:  3,
	})
	if err != nil {
		return err
	}

	return diff.Write(c.out, res, c.color)
}

// keyPaths summarizes the converted documents for watch mode.
func keyPaths(docs []any) map[string]string {
	if len(docs) == 1 {
		return watch.KeyPaths(docs[0])
	}

	return watch.KeyPaths(docs)
}
