package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/projectd/internal/safeguard"
)

// promptYesNo asks a yes/no question on w and reads the answer from r.
// Accepted answers are y, yes, n, and no in any case; an empty answer
// takes the default. Anything else re-asks.
func promptYesNo(r io.Reader, w io.Writer, question string, def bool) (bool, error) {
	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "%s %s ", question, suffix)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, fmt.Errorf("failed to read answer: %w", err)
			}
			// EOF takes the default, same as an empty answer.
			return def, nil
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(w, "Please answer y or n.")
	}
}

// promptSelect shows a numbered menu of options on w and reads a choice
// from r. Entering 0 cancels and returns -1; anything out of range
// re-asks. The returned index is into options.
func promptSelect(r io.Reader, w io.Writer, heading string, options []string) (int, error) {
	fmt.Fprintln(w, heading)
	for i, opt := range options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintln(w, "  0) cancel")

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "Choice: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return -1, fmt.Errorf("failed to read choice: %w", err)
			}
			return -1, nil
		}

		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && n >= 0 && n <= len(options) {
			if n == 0 {
				return -1, nil
			}
			return n - 1, nil
		}
		fmt.Fprintf(w, "Please enter a number between 0 and %d.\n", len(options))
	}
}

// stdinConfirm adapts the terminal prompt to the safeguard's confirm
// callback. The default answer is no.
func stdinConfirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintln(os.Stderr, prompt)
	return promptYesNo(os.Stdin, os.Stderr, "Proceed anyway?", false)
}

// alwaysConfirm is used with --yes.
func alwaysConfirm(ctx context.Context, prompt string) (bool, error) {
	return true, nil
}

var _ safeguard.ConfirmFunc = stdinConfirm
