package main

import (
	"fmt"
	"io"
)

// processCommandLineArgs applies flags to cfg. It reports whether the
// program should exit immediately and with which code.
func processCommandLineArgs(args []string, cfg *Config, out io.Writer) (exit bool, code int) {
	for _, arg := range args {
		if arg == "--validation" {
			cfg.Validation = true
		} else if arg == "--help" || arg == "-h" {
			fmt.Fprintln(out, "\nOptions")
			fmt.Fprintln(out, "\t--validation")
			fmt.Fprintln(out, "\t\tEnable the Vulkan validation layer")
			fmt.Fprintln(out, "\nEnvironment")
			for _, key := range []string{envWidth, envHeight, envTitle, envShaderDir, envValidation, envLogLevel, envFrameStats} {
				fmt.Fprintf(out, "\t%s\n", key)
			}
			return true, 0
		} else {
			fmt.Fprintf(out, "\nUnrecognized option: %s\n", arg)
			fmt.Fprintln(out, "\nUse --help or -h for option list.")
			return true, 1
		}
	}

	return false, 0
}
