package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/escore/escore/pkg/ast"
	"github.com/escore/escore/pkg/engine"
)

var (
	evalJSON     string
	dumpAST      bool
	patches      []string
	manifestPath string
)

var runCmd = &cobra.Command{
	Use:   "run [program.json]",
	Short: "Run a JSON-encoded program",
	Long: `Execute a program from its JSON AST representation.

Examples:
  # Run a program file
  escore run program.json

  # Evaluate an inline AST literal
  escore run -e '{"type":"Program","body":[...]}'

  # Patch a field before running (handy for quick experiments)
  escore run --set body.0.expression.value=42 program.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalJSON, "eval", "e", "", "evaluate an inline JSON AST literal instead of reading from file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "print a summary of the parsed AST before running")
	runCmd.Flags().StringArrayVar(&patches, "set", nil, "path=value patch applied to the AST JSON before decoding (repeatable)")
	runCmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest configuring the engine (maxCallDepth, ...)")
}

// manifest is the optional host configuration document a caller can
// supply instead of flags, for the settings worth version-controlling
// alongside a program rather than typing on every invocation.
type manifest struct {
	MaxCallDepth int `yaml:"maxCallDepth"`
}

func loadManifest(path string) (*manifest, error) {
	if path == "" {
		return &manifest{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

func runProgram(_ *cobra.Command, args []string) error {
	var raw []byte
	var source string
	switch {
	case evalJSON != "":
		raw = []byte(evalJSON)
		source = "<eval>"
	case len(args) == 1:
		source = args[0]
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", source, err)
		}
		raw = data
	default:
		return fmt.Errorf("either provide a program file or use -e for an inline AST literal")
	}

	for _, patch := range patches {
		var perr error
		raw, perr = applyPatch(raw, patch)
		if perr != nil {
			return perr
		}
	}

	if dumpAST {
		dumpASTSummary(raw)
	}

	program, err := ast.DecodeProgram(raw)
	if err != nil {
		return fmt.Errorf("failed to decode AST from %s: %w", source, err)
	}

	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if m.MaxCallDepth > 0 {
		opts = append(opts, engine.WithMaxCallDepth(m.MaxCallDepth))
	}

	eng, err := engine.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	result, err := eng.Run(program)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if verbose && result.Success {
		fmt.Fprintf(os.Stderr, "result: %s\n", result.Value.DebugString())
	}
	return nil
}

// applyPatch rewrites one "path=value" flag into raw's JSON via sjson,
// the same dotted-path addressing gjson reads with — a lightweight
// escape hatch for tweaking a fixture's AST without hand-editing the
// whole file.
func applyPatch(raw []byte, patch string) ([]byte, error) {
	path, value, ok := splitPatch(patch)
	if !ok {
		return nil, fmt.Errorf("invalid --set %q, expected path=value", patch)
	}
	patched, err := sjson.SetRaw(string(raw), path, quoteIfNotJSON(value))
	if err != nil {
		return nil, fmt.Errorf("applying --set %q: %w", patch, err)
	}
	return []byte(patched), nil
}

func splitPatch(patch string) (path, value string, ok bool) {
	for i := 0; i < len(patch); i++ {
		if patch[i] == '=' {
			return patch[:i], patch[i+1:], true
		}
	}
	return "", "", false
}

// quoteIfNotJSON lets --set take either a raw JSON literal (42, true,
// "already quoted") or a bare string, so `--set name=foo` doesn't force
// the caller to type `--set name=\"foo\"`.
func quoteIfNotJSON(value string) string {
	if gjson.Valid(value) {
		return value
	}
	return `"` + value + `"`
}

func dumpASTSummary(raw []byte) {
	root := gjson.ParseBytes(raw)
	fmt.Println("AST:")
	fmt.Printf("  type: %s\n", root.Get("type").String())
	body := root.Get("body")
	fmt.Printf("  body: %d statement(s)\n", len(body.Array()))
	for i, stmt := range body.Array() {
		fmt.Printf("    [%d] %s\n", i, stmt.Get("type").String())
	}
	fmt.Println()
}
