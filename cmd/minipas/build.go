package main

import (
	"log"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var buildCmd = &cobra.Command{
	Use:   "build <source.pas>...",
	Short: "Compile several programs concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE:  buildRun,
}

// buildRun compiles every argument, stopping at the first failure.
func buildRun(cmd *cobra.Command, args []string) error {
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for _, path := range args {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out, err := compileFile(path, outDir)
			if err != nil {
				return err
			}
			log.Printf("wrote %s", out)
			return nil
		})
	}
	return g.Wait()
}
