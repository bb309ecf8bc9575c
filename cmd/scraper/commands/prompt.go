package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errNoMode = errors.New("no match mode chosen")

// promptMode lists modes numbered from 1 and reads the choice from in.
func promptMode(in io.Reader, out io.Writer, modes []string) (string, error) {
	fmt.Fprintln(out, "Choose the match mode to collect:")
	for i, m := range modes {
		fmt.Fprintf(out, "%d - %s\n", i+1, m)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: %v", errNoMode, err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", errNoMode, strings.TrimSpace(line))
	}
	if n < 1 || n > len(modes) {
		return "", fmt.Errorf("%w: choose a number from 1 to %d", errNoMode, len(modes))
	}
	return modes[n-1], nil
}
