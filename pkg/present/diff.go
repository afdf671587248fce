// SPDX-License-Identifier: Apache-2.0

// Package present renders plans and history for human consumption. It is
// pure presentation: nothing here touches the store or the repository,
// and none of it is part of the service's correctness contract.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

const ruleWidth = 60

// Direction names a migration's SQL direction for diff framing.
type Direction string

const (
	Up   Direction = "UP"
	Down Direction = "DOWN"
)

// Block is one migration's framed SQL, ready to print.
type Block struct {
	ID  string
	Dir Direction
	SQL string
}

// WriteDiff prints each block framed by a header line and horizontal
// rules, "▶ Migration: <id> [UP|DOWN]" delimited by
// rule lines, the literal SQL, then the same rule.
func WriteDiff(w io.Writer, blocks []Block) {
	rule := strings.Repeat("─", ruleWidth)
	for _, b := range blocks {
		header := fmt.Sprintf("▶ Migration: %s [%s]", b.ID, b.Dir)
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, pterm.Bold.Sprint(header))
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, strings.TrimRight(b.SQL, "\n"))
		fmt.Fprintln(w, rule)
	}
}

func Notice(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, pterm.FgCyan.Sprintf(format, args...))
}

func Warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, pterm.FgYellow.Sprintf(format, args...))
}

func Err(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, pterm.FgRed.Sprintf(format, args...))
}
