// Command rdelta computes and applies block-level deltas between two
// versions of a file.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/counter"
	"github.com/itchio/rdelta/pwr"
	"github.com/itchio/rdelta/wsync"
	"github.com/itchio/screw"
	"github.com/itchio/savior/seeksource"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// errUsage marks errors caused by bad invocations
var errUsage = errors.New("usage error")

type command struct {
	name  string
	args  []string
	usage string
	run   func(app *app, args []string) error
}

var commands = []command{
	{"sign", []string{"reference", "signature"}, "hash the blocks of a reference file", runSign},
	{"diff", []string{"signature", "source", "patch"}, "write a patch turning the signed reference into source", runDiff},
	{"apply", []string{"reference", "patch", "output"}, "rebuild a source file from its reference and a patch", runApply},
	{"verify", []string{"reference", "signature"}, "check that a reference matches its signature", runVerify},
	{"report", []string{"reference", "source"}, "print the instructions rebuilding source from reference", runReport},
}

type app struct {
	settings pwr.Settings
	verbose  bool
	logger   zerolog.Logger
	consumer *state.Consumer
	stdout   io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout io.Writer, stderr io.Writer) int {
	err := dispatch(argv, stdout, stderr)
	if err == nil {
		return 0
	}

	if errors.Cause(err) == pflag.ErrHelp {
		return 0
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	switch errors.Cause(err) {
	case errUsage, pwr.ErrConfiguration:
		printUsage(stderr)
		return 2
	default:
		return 1
	}
}

func dispatch(argv []string, stdout io.Writer, stderr io.Writer) error {
	if len(argv) == 0 {
		return errors.Wrap(errUsage, "missing command")
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == argv[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		if argv[0] == "help" || argv[0] == "--help" || argv[0] == "-h" {
			printUsage(stderr)
			return nil
		}
		return errors.Wrapf(errUsage, "unknown command %q", argv[0])
	}

	a := &app{stdout: stdout}
	flagSet := newFlagSet(cmd.name, a)
	flagSet.SetOutput(stderr)

	err := flagSet.Parse(argv[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return err
		}
		return errors.Wrap(errUsage, err.Error())
	}

	args := flagSet.Args()
	if len(args) != len(cmd.args) {
		return errors.Wrapf(errUsage, "%s expects %d arguments, got %d", cmd.name, len(cmd.args), len(args))
	}

	err = a.settings.Validate()
	if err != nil {
		return err
	}

	a.logger = newLogger(stderr, a.verbose)
	a.consumer = newConsumer(a.logger)
	return cmd.run(a, args)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: rdelta <command> [flags] <args>\n\nCommands:\n")
	for _, cmd := range commands {
		args := ""
		for _, arg := range cmd.args {
			args += " <" + arg + ">"
		}
		fmt.Fprintf(w, "  %-8s%-32s %s\n", cmd.name, args, cmd.usage)
	}

	var a app
	fmt.Fprintf(w, "\nFlags:\n%s", newFlagSet("rdelta", &a).FlagUsages())
}

func newFlagSet(name string, a *app) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.IntVar(&a.settings.BlockSize, "block-size", pwr.DefaultBlockSize, "size of the blocks the reference is split into, in bytes")
	flagSet.StringVar(&a.settings.StrongHash, "strong-hash", pwr.StrongHashMD5, "hash confirming block matches (md5 or blake3)")
	flagSet.BoolVarP(&a.verbose, "verbose", "v", false, "log every block and instruction")
	return flagSet
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func newConsumer(logger zerolog.Logger) *state.Consumer {
	return &state.Consumer{
		OnMessage: func(level string, msg string) {
			switch level {
			case "debug":
				logger.Debug().Msg(msg)
			case "warning":
				logger.Warn().Msg(msg)
			case "error":
				logger.Error().Msg(msg)
			default:
				logger.Info().Msg(msg)
			}
		},
	}
}

func readInput(path string) ([]byte, error) {
	f, err := screw.Open(path)
	if err != nil {
		return nil, errors.Wrapf(pwr.ErrInputUnavailable, "%s: %v", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(pwr.ErrInputUnavailable, "%s: %v", path, err)
	}
	return data, nil
}

// writeOutput creates path and calls write on it. If anything fails,
// path is removed rather than left half-written.
func (a *app) writeOutput(path string, write func(w io.Writer) error) error {
	f, err := screw.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}

	cw := counter.NewWriter(f)
	err = write(cw)
	if err == nil {
		err = errors.WithStack(cw.Close())
	} else {
		cw.Close()
	}

	if err != nil {
		if rmErr := screw.Remove(path); rmErr != nil {
			a.logger.Warn().Err(rmErr).Str("path", path).Msg("could not remove partial output")
		}
		return err
	}

	a.logger.Debug().Str("path", path).Msgf("Wrote %s", united.FormatBytes(cw.Count()))
	return nil
}

func runSign(a *app, args []string) error {
	reference, err := readInput(args[0])
	if err != nil {
		return err
	}

	sigInfo, err := pwr.ComputeSignature(bytes.NewReader(reference), a.settings, a.consumer)
	if err != nil {
		return err
	}

	return a.writeOutput(args[1], func(w io.Writer) error {
		return pwr.WriteSignature(w, sigInfo)
	})
}

func runDiff(a *app, args []string) error {
	sigBytes, err := readInput(args[0])
	if err != nil {
		return err
	}

	sigInfo, err := pwr.ReadSignature(bytes.NewReader(sigBytes))
	if err != nil {
		return err
	}

	source, err := readInput(args[1])
	if err != nil {
		return err
	}

	dctx := &pwr.DiffContext{
		TargetSignature: sigInfo,
		Consumer:        a.consumer,
	}

	return a.writeOutput(args[2], func(w io.Writer) error {
		return dctx.WritePatch(w, source)
	})
}

func runApply(a *app, args []string) error {
	reference, err := readInput(args[0])
	if err != nil {
		return err
	}

	patch, err := readInput(args[1])
	if err != nil {
		return err
	}

	actx := &pwr.ApplyContext{
		Consumer: a.consumer,
	}

	return a.writeOutput(args[2], func(w io.Writer) error {
		return actx.ApplyPatch(seeksource.FromBytes(patch), bytes.NewReader(reference), w)
	})
}

func runVerify(a *app, args []string) error {
	sigBytes, err := readInput(args[1])
	if err != nil {
		return err
	}

	sigInfo, err := pwr.ReadSignature(bytes.NewReader(sigBytes))
	if err != nil {
		return err
	}

	reference, err := screw.Open(args[0])
	if err != nil {
		return errors.Wrapf(pwr.ErrInputUnavailable, "%s: %v", args[0], err)
	}
	defer reference.Close()

	return pwr.ValidateReference(reference, sigInfo, a.consumer)
}

func runReport(a *app, args []string) error {
	reference, err := readInput(args[0])
	if err != nil {
		return err
	}

	source, err := readInput(args[1])
	if err != nil {
		return err
	}

	recipe, err := pwr.ComputeRecipe(reference, source, a.settings, a.consumer)
	if err != nil {
		return err
	}

	// measure the patch this diff would make, without keeping it
	dctx := &pwr.DiffContext{TargetSignature: recipe.Signature}
	err = dctx.WritePatch(nil, source)
	if err != nil {
		return err
	}
	recipe.Stats.PatchSize = dctx.Stats.PatchSize

	for i, op := range recipe.Ops {
		switch op.Type {
		case wsync.OpBlock:
			fmt.Fprintf(a.stdout, "op:%d block id:%d\n", i, op.BlockIndex)
		case wsync.OpData:
			fmt.Fprintf(a.stdout, "op:%d data len:%d %q\n", i, len(op.Data), op.Data)
		}
	}
	fmt.Fprintf(a.stdout, "%s\n", recipe.Stats)
	return nil
}
