// File: cmd/caseforge/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/mattn/go-shellwords"

	"github.com/xkilldash9x/caseforge-cli/cmd"
	"github.com/xkilldash9x/caseforge-cli/internal/observability"
)

const panicLogFile = "panic.log"

const banner = `
   ___ __ _ ___  ___ / _| ___  _ __ __ _  ___
  / __/ _' / __|/ _ \ |_ / _ \| '__/ _' |/ _ \
 | (_| (_| \__ \  __/  _| (_) | | | (_| |  __/
  \___\__,_|___/\___|_|  \___/|_|  \__, |\___|
                                   |___/
  stories and sessions in, test cases out.
  type 'help' for commands, 'exit' to quit.

`

// Replaceable in tests.
var (
	osWriteFile   = os.WriteFile
	osExit        = os.Exit
	notifyContext = signal.NotifyContext
)

func main() {
	defer handlePanic()

	if len(os.Args) > 1 {
		ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err := cmd.Execute(ctx)
		stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			osExit(1)
		}
		return
	}

	// Signals are only trapped while a command runs; at the prompt Ctrl+C
	// exits the shell.
	fmt.Print(banner)
	if err := runShell(context.Background(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading from stdin:", err)
		osExit(1)
	}
	fmt.Println("Exiting caseforge.")
}

// runShell reads command lines from in until EOF, "exit" or "quit".
func runShell(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	parser := shellwords.NewParser()
	parser.ParseEnv = true

	for {
		fmt.Fprint(out, "caseforge > ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		args, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		executeInteractiveCommand(ctx, args, out, errOut)
	}
	return scanner.Err()
}

// executeInteractiveCommand runs one command on a fresh command tree and
// keeps the shell alive through errors and panics. Each command gets its own
// signal context, so Ctrl+C stops only the running command.
func executeInteractiveCommand(ctx context.Context, args []string, out, errOut io.Writer) {
	cmdCtx, stop := notifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(errOut, "Error: Command panicked: %v\n", r)
		}
	}()
	// Cobra already prints the error and usage.
	_ = rootCmd.ExecuteContext(cmdCtx)
}

// handlePanic records the stack trace of an unrecovered panic to panic.log.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(2)
		return
	}
	fmt.Fprintf(os.Stderr, "caseforge crashed. Details logged to %s\n", panicLogFile)
	osExit(2)
}
