package main

import (
	"errors"
	"fmt"
	"os"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes pre-flight refusals (validation, date lock) from
// everything else. A run that reached reporting exits 0 regardless of
// degraded stages.
func exitCode(err error) int {
	var validationErr *briefingerrors.ValidationError
	var parseErr *briefingerrors.ParseError
	var lockErr *briefingerrors.LockError
	if errors.As(err, &validationErr) || errors.As(err, &parseErr) || errors.As(err, &lockErr) {
		return 2
	}
	return 1
}
