// Command skywatch finds satellites visible to a ground observer.
//
// Usage:
//
//	skywatch calculate < request.json   per-object report for the request's satellites
//	skywatch qualify < request.json     ranked shortlist drawn from the catalog
//	skywatch import [-file f] [-url u]  load element sets into the catalog
//	skywatch serve                      HTTP API with scheduled catalog refresh
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const usage = `usage: skywatch <command> [flags]

commands:
  calculate   read a request from stdin, write the calculation report to stdout
  qualify     read a request from stdin, write the qualified shortlist to stdout
  import      fetch or read 3-line element sets into the catalog
  serve       run the HTTP API
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	envErr := godotenv.Load()

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	// Request/response modes keep stdout for JSON.
	logOut := stderr
	if args[0] == "serve" {
		logOut = stdout
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("SKYWATCH_LOG_LEVEL")),
	}))
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not load .env file", "error", envErr)
	}

	switch args[0] {
	case "calculate":
		return runCalculate(logger, stdin, stdout, stderr)
	case "qualify":
		return runQualify(logger, stdin, stdout, stderr)
	case "import":
		return runImport(logger, args[1:], stderr)
	case "serve":
		return runServe(logger)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}
