package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassphrase prompts on stderr and reads a passphrase without echo.
// When stdin is not a terminal the first line of stdin is used, so scripts
// can pipe the passphrase in.
func readPassphrase(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := readHidden(fd, prompt)
	if err != nil {
		return "", err
	}
	if !confirm {
		return first, nil
	}

	second, err := readHidden(fd, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func readHidden(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
