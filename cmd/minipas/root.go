package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"minipas/pkg/compiler"
	"minipas/pkg/utils"
)

var (
	outDir   string
	toStdout bool
)

var rootCmd = &cobra.Command{
	Use:   "minipas <source.pas>",
	Short: "Compiler for a small Pascal subset targeting MIPS assembly",
	Long: `minipas compiles a Pascal-subset program to MIPS assembly.

Commands:
  run    Interpret a program directly
  sim    Compile a program and run it on the MIPS simulator
  build  Compile several programs concurrently
  repl   Read and interpret programs interactively
`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if toStdout {
			assembly, err := compileSource(args[0])
			if err != nil {
				return err
			}
			fmt.Print(assembly)
			return nil
		}
		path, err := compileFile(args[0], outDir)
		if err != nil {
			return err
		}
		log.Printf("wrote %s", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory for assembly (default: next to the source)")
	rootCmd.Flags().BoolVar(&toStdout, "stdout", false, "print the assembly instead of writing a file")

	rootCmd.AddCommand(runCmd, simCmd, buildCmd, replCmd)
}

func readSource(path string) (string, error) {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return "", err
	}
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return "", errors.Wrap(err, "read source")
	}
	return string(src), nil
}

func compileSource(path string) (string, error) {
	src, err := readSource(path)
	if err != nil {
		return "", err
	}
	assembly, err := compiler.Compile(src)
	if err != nil {
		return "", errors.Wrap(err, filepath.Base(path))
	}
	return assembly, nil
}

// compileFile compiles path and writes the assembly, returning where it went.
func compileFile(path, dir string) (string, error) {
	assembly, err := compileSource(path)
	if err != nil {
		return "", err
	}
	out, err := utils.AssemblyPath(path, dir)
	if err != nil {
		return "", err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "create output directory")
		}
	}
	if err := os.WriteFile(out, []byte(assembly), 0o644); err != nil {
		return "", errors.Wrap(err, "write assembly")
	}
	return out, nil
}
