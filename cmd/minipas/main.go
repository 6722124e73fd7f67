// Command minipas compiles Pascal-subset programs to MIPS assembly, and can
// also interpret them or run the generated code on the bundled simulator.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("minipas: ")
	if err := rootCmd.Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
