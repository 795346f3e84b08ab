// Command integral serves and runs the step-by-step integral calculator.
//
//	integral serve --config integral.yaml
//	integral solve "6*x^2 + sin(x)" --type definite --lower 0 --upper 1
//	integral schema
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
