package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"minipas/pkg/compiler"
	"minipas/pkg/interp"
	"minipas/pkg/syntax"
)

const (
	historyFile = ".minipas_history"
	promptMain  = "pas> "
	promptCont  = "...> "
	replHelp    = `
Enter a program ending in "end." to run it. Statements may span lines.
  :help          Show this help
  :quit / :exit  Leave the REPL
  :load <file>   Run a program from a file
  :asm           Toggle printing the generated assembly
`
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read and interpret programs interactively",
	Args:  cobra.NoArgs,
	RunE:  replRun,
}

type replSession struct {
	ln      *liner.State
	showAsm bool
}

func replRun(cmd *cobra.Command, args []string) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &replSession{ln: ln}
	fmt.Println("minipas REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")
	for {
		src, ok := s.readProgram()
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				break
			}
			continue
		}
		s.run(src)
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// readProgram accumulates lines until they parse or fail for a reason other
// than running out of input. ok is false at end of input.
func (s *replSession) readProgram() (src string, ok bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := s.ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}
		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		_, perr := syntax.ParseSource(b.String())
		if perr == nil || !syntax.IsIncomplete(perr) {
			return b.String(), true
		}
	}
}

// command handles a ':' line and reports whether the REPL should exit.
func (s *replSession) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Print(replHelp)
	case ":quit", ":exit":
		return true
	case ":asm":
		s.showAsm = !s.showAsm
		fmt.Printf("assembly listing %s\n", map[bool]string{true: "on", false: "off"}[s.showAsm])
	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <file>")
			return false
		}
		src, err := readSource(fields[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		s.run(src)
	default:
		fmt.Printf("unknown command %s; try :help\n", fields[0])
	}
	return false
}

func (s *replSession) run(src string) {
	if s.showAsm {
		assembly, err := compiler.Compile(src)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Print(assembly)
	}
	cfg := interp.DefaultConfig()
	if err := compiler.Interpret(src, cfg); err != nil {
		fmt.Println(err)
	}
}
