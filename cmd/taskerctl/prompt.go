package main

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/term"

	"tasker/internal/auth"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// passwordFlags are shared by user-add and user-mod-passwd.
type passwordFlags struct {
	password string
	generate bool
}

// resolve returns the password to set and whether it was generated. Without
// -p or --generate-password it prompts twice on the terminal.
func (f passwordFlags) resolve(w io.Writer) (string, bool, error) {
	switch {
	case f.password != "" && f.generate:
		return "", false, errors.New("-p and --generate-password are mutually exclusive")
	case f.generate:
		pw, err := auth.GeneratePassword()
		return pw, true, err
	case f.password != "":
		return f.password, false, nil
	}

	first, err := promptHidden(w, "Password: ")
	if err != nil {
		return "", false, err
	}
	second, err := promptHidden(w, "Repeat password: ")
	if err != nil {
		return "", false, err
	}
	if first != second {
		return "", false, errPasswordMismatch
	}
	return first, false, nil
}

func promptHidden(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	pw, err := readPassword(stdinFD())
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
