// Package cmd wires the minijvm command line: a single cobra command
// that loads one class file and runs its main method.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/minijvm/internal/classfile"
	"github.com/cwbudde/minijvm/internal/diagnostics"
	"github.com/cwbudde/minijvm/internal/vm"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes. 0 and 1 follow the usual Unix convention; 70 is
// EX_SOFTWARE from sysexits.h, reserved for an internal fault rather
// than a usage mistake.
const (
	exitOK       = 0
	exitUsage    = 1
	exitSoftware = 70
)

var (
	traceFlag   bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "minijvm [class-file]",
	Short: "A minimal interpreter for a subset of JVM class files",
	Long: `minijvm loads a single .class file compiled from a small subset of
Java - Signed32 arithmetic, local variables, control flow, static
method calls, and one-dimensional int arrays - and runs its main
method.

It recognizes no standard library beyond System.out.println(int).
Class files whose method descriptors use float, long, or double,
whose constant pool holds long or double entries, or whose methods
carry an exception table are rejected at load time. Declared
interfaces, float constants, and object-typed parameters are not
rejected; an unsupported instruction is a fatal fault when it is
reached.`,
	Version: Version,
	Args:    cobra.ExactArgs(1),
	RunE:    runClass,
}

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log method entry and exit to stderr")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "trace every executed instruction to stderr")
}

// Execute runs the command and returns the process exit code. main is
// the only place allowed to call os.Exit, so this never does.
func Execute() int {
	err := executeRecovering()

	var fault *diagnostics.Fault
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &fault):
		fmt.Fprintf(os.Stderr, "fault: %s\n%s", fault.Message, fault.Trace.String())
		return exitSoftware
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitUsage
	}
}

// executeRecovering runs the cobra command and turns a propagating
// *diagnostics.Fault panic into a returned error, so Execute has one
// place to decide the exit code.
func executeRecovering() (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*diagnostics.Fault)
			if !ok {
				panic(r)
			}
			err = fault
		}
	}()
	return rootCmd.Execute()
}

func runClass(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path := args[0]
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return err
	}
	defer cf.Close()

	entry, ok := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if !ok {
		return diagnostics.NewFileError(path, "no main([Ljava/lang/String;)V method found")
	}

	machine := vm.New(cf, os.Stdout)
	if traceFlag {
		machine.SetTrace(os.Stderr)
	}
	if verboseFlag {
		machine.SetVerbose(os.Stderr)
	}

	runErr := machine.Run(entry)
	if verboseFlag {
		fmt.Fprintf(os.Stderr, "heap: %d array(s) allocated\n", machine.Heap().Len())
	}
	return runErr
}
