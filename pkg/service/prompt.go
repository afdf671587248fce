// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cchexcode/qop/pkg/qoperr"
)

// PromptWithDiff is the confirmation primitive. If
// autoConfirm, it returns true without reading stdin. Otherwise it loops
// printing message, reading one line: y/yes confirms, n/no/empty
// cancels, d/diff invokes renderDiff and re-prompts, anything else
// re-prompts with a usage hint.
func PromptWithDiff(in io.Reader, out io.Writer, message string, autoConfirm bool, renderDiff func()) (bool, error) {
	if autoConfirm {
		return true, nil
	}

	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s [y/N/d]: ", message)

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, qoperr.Wrap(qoperr.IOError, "failed to read confirmation", err)
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		case "d", "diff":
			renderDiff()
			continue
		default:
			fmt.Fprintln(out, `please answer "y", "n", or "d"`)
			if err == io.EOF {
				return false, nil
			}
			continue
		}
	}
}
