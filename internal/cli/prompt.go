package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForDirectory asks for a directory on stdout and reads the answer
// from stdin. The current directory is used when the answer is empty.
func PromptForDirectory() string {
	return PromptForDirectoryFrom(os.Stdin, os.Stdout)
}

// PromptForDirectoryFrom is PromptForDirectory with explicit streams.
func PromptForDirectoryFrom(in io.Reader, out io.Writer) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Fprintf(out, "Directory [%s]: ", cwd)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read input, using current directory")
		return cwd
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return cwd
	}
	return input
}
