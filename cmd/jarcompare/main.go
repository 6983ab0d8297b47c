// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/coderush/jardiff/internal/config"
	"github.com/coderush/jardiff/cmd/jarcompare/report"
	"github.com/coderush/jardiff/pkg/act"
	"github.com/coderush/jardiff/pkg/act/cli"
	"github.com/coderush/jardiff/pkg/jardiff"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the jarcompare command, mirroring
// jardiff.Policy's five booleans as flags plus the output-mode and
// config-file switches.
type Config struct {
	OldJar, NewJar string
	ConfigPath     string
	JSONOutput     bool
	NoProgress     bool

	IncludePrivateMembers        bool
	IncludePackagePrivateClasses bool
	AnalyzeFieldChanges          bool
	AnalyzeAnnotations           bool
	DetectBinaryCompatibility    bool

	// explicitFlags holds the long name of every flag the user actually
	// passed on the command line, populated by Command() after cobra
	// parses flags. Only these may override a --config file's policy.
	explicitFlags map[string]bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.OldJar == "" {
		return errors.New("old archive path is required")
	}
	if c.NewJar == "" {
		return errors.New("new archive path is required")
	}
	return nil
}

// policy resolves the effective policy: config-file values form the
// base, then any CLI flag the user actually typed overrides its
// corresponding value (§7a precedence rule: flags win over the file,
// but an unset flag must not clobber a file value with its default).
func (c Config) policy() (jardiff.Policy, error) {
	flagPolicy := jardiff.Policy{
		IncludePrivateMembers:        c.IncludePrivateMembers,
		IncludePackagePrivateClasses: c.IncludePackagePrivateClasses,
		AnalyzeFieldChanges:          c.AnalyzeFieldChanges,
		AnalyzeAnnotations:           c.AnalyzeAnnotations,
		DetectBinaryCompatibility:    c.DetectBinaryCompatibility,
	}
	if c.ConfigPath == "" {
		return flagPolicy, nil
	}
	file, err := config.Load(c.ConfigPath)
	if err != nil {
		return jardiff.Policy{}, err
	}
	p := file.Policy()
	if c.explicitFlags["include-private-members"] {
		p.IncludePrivateMembers = c.IncludePrivateMembers
	}
	if c.explicitFlags["include-package-private-classes"] {
		p.IncludePackagePrivateClasses = c.IncludePackagePrivateClasses
	}
	if c.explicitFlags["analyze-field-changes"] {
		p.AnalyzeFieldChanges = c.AnalyzeFieldChanges
	}
	if c.explicitFlags["analyze-annotations"] {
		p.AnalyzeAnnotations = c.AnalyzeAnnotations
	}
	if c.explicitFlags["detect-binary-compatibility"] {
		p.DetectBinaryCompatibility = c.DetectBinaryCompatibility
	}
	return p, nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO cli.IO
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(context.Context) (*Deps, error) {
	return &Deps{}, nil
}

// ErrComparisonFailed signals a FAILED comparison status to main, which
// maps it to a distinct exit code from a successful run that merely
// reported breaking changes.
var ErrComparisonFailed = errors.New("comparison failed")

// Handler drives jardiff.Compare synchronously and renders the result.
// It stands in for the out-of-scope HTTP surface: it does not track
// in-flight requests or poll progress over a wire.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	oldFile, err := os.Open(cfg.OldJar)
	if err != nil {
		return nil, errors.Wrapf(err, "opening old archive %s", cfg.OldJar)
	}
	defer oldFile.Close()
	newFile, err := os.Open(cfg.NewJar)
	if err != nil {
		return nil, errors.Wrapf(err, "opening new archive %s", cfg.NewJar)
	}
	defer newFile.Close()

	oldSrc, err := jardiff.NewFileArchiveSource(oldFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading old archive")
	}
	newSrc, err := jardiff.NewFileArchiveSource(newFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading new archive")
	}

	policy, err := cfg.policy()
	if err != nil {
		return nil, errors.Wrap(err, "resolving policy")
	}

	req := jardiff.Request{
		ID:       uuid.NewString(),
		Old:      oldSrc,
		New:      newSrc,
		Policy:   policy,
		Progress: progressFunc(deps.IO, cfg.NoProgress),
	}

	result, err := jardiff.Compare(ctx, req)
	if err != nil && result == nil {
		return nil, err
	}

	if cfg.JSONOutput {
		data, marshalErr := result.MarshalJSON()
		if marshalErr != nil {
			return nil, errors.Wrap(marshalErr, "encoding result")
		}
		fmt.Fprintln(deps.IO.Out, string(data))
	} else {
		report.Write(deps.IO.Out, result)
	}

	if result.Status == jardiff.StatusFailed {
		return nil, ErrComparisonFailed
	}
	return &act.NoOutput{}, nil
}

// progressFunc wires a cheggaaa/pb bar to the archive walk's per-entry
// callback, disabled when NoProgress is set or stdout is not a
// terminal-attached writer (a plain os.Stdout check, since pb itself
// degrades gracefully off a TTY but the flag lets scripted callers
// silence it outright).
func progressFunc(io cli.IO, disabled bool) jardiff.ProgressFunc {
	if disabled {
		return nil
	}
	if fi, err := os.Stdout.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return nil
	}
	var bar *pb.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = pb.New(total)
			bar.Output = io.Err
			bar.Start()
		}
		bar.Set(done)
		if done >= total {
			bar.Finish()
			bar = nil
		}
	}
}

// ParseArgs parses positional arguments into the Config.
func ParseArgs(cfg *Config, args []string) error {
	if len(args) != 2 {
		return errors.Errorf("expected exactly 2 arguments (old.jar new.jar), got %d", len(args))
	}
	cfg.OldJar = args[0]
	cfg.NewJar = args[1]
	return nil
}

// Command creates a new jarcompare command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "jarcompare [flags] <old.jar> <new.jar>",
		Short: "Compare the class surface of two Java archives for binary compatibility",
		Long: `jarcompare compares two Java archives (JAR/WAR/EAR or any ZIP-format
container of compiled classes) and reports every observable difference
in their public and optionally internal class surface, classified by
binary-compatibility impact.

Examples:
  # Compare two versions of a library
  jarcompare old.jar new.jar

  # Include package-private classes and private members
  jarcompare --include-private-members --include-package-private-classes old.jar new.jar

  # Machine-readable output
  jarcompare --json old.jar new.jar`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))

	// cobra parses flags before RunE runs, so by the time this wrapper
	// executes, Flags().Visit reports exactly the flags the user typed.
	// policy() needs that set to know which values may override a
	// --config file.
	runE := cli.RunE(&cfg, ParseArgs, InitDeps, Handler)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		cfg.explicitFlags = make(map[string]bool)
		c.Flags().Visit(func(f *pflag.Flag) {
			cfg.explicitFlags[f.Name] = true
		})
		return runE(c, args)
	}
	return cmd
}

// flagSet returns the command-line flags for the Config struct.
func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.StringVar(&cfg.ConfigPath, "config", "", "path to a YAML policy file (CLI flags override its values)")
	set.BoolVar(&cfg.JSONOutput, "json", false, "output the comparison result as JSON instead of colorized text")
	set.BoolVar(&cfg.NoProgress, "no-progress", false, "disable the progress bar during archive scans")
	set.BoolVar(&cfg.IncludePrivateMembers, "include-private-members", false, "include private methods and fields in the comparison")
	set.BoolVar(&cfg.IncludePackagePrivateClasses, "include-package-private-classes", false, "include package-private classes in the comparison")
	set.BoolVar(&cfg.AnalyzeFieldChanges, "analyze-field-changes", true, "analyze field additions, removals, and type/access changes")
	set.BoolVar(&cfg.AnalyzeAnnotations, "analyze-annotations", false, "analyze annotation additions and removals")
	set.BoolVar(&cfg.DetectBinaryCompatibility, "detect-binary-compatibility", true, "carried in the request policy; every change is classified by binary-compatibility impact regardless of this value")
	return set
}

func main() {
	cmd := Command()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, ErrComparisonFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(127)
	}
}
