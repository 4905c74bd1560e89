// Command gridform is an interactive shell over one in-process
// engine.Engine: type "A1 = <content>" to write a cell and "A1" alone
// to read it back, against a single default workbook/sheet pair.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/engine"
	"github.com/gridform/gridform/parser"
)

const (
	workbook = "Book1"
	sheet    = "Sheet1"
	banner   = "gridform -- type \"A1 = formula\" to write, \"A1\" to read, :help for commands\n"
)

func main() {
	eng := engine.New()
	eng.AddWorkbook(workbook)
	eng.AddSheet(workbook, sheet)

	if err := run(eng, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gridform: %v\n", err)
		os.Exit(1)
	}
}

func run(eng *engine.Engine, in *os.File, out *os.File) error {
	fmt.Fprint(out, banner)

	if term.IsTerminal(int(in.Fd())) {
		return runTTY(eng, in, out)
	}
	return runPiped(eng, in, out)
}

// runTTY drives the session through x/term's line editor, which
// itself takes care of the raw-mode toggling, history, and
// backspace/arrow-key handling the teacher's REPL hand-rolled byte by
// byte -- the same library, used at a higher level.
func runTTY(eng *engine.Engine, in *os.File, out *os.File) error {
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return err
	}
	defer term.Restore(int(in.Fd()), state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, "gridform> ")

	for {
		line, err := t.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if done := execute(eng, line, t); done {
			return nil
		}
	}
}

// runPiped handles non-interactive input (scripts, pipes, tests).
func runPiped(eng *engine.Engine, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if done := execute(eng, scanner.Text(), out); done {
			return nil
		}
	}
	return scanner.Err()
}

func execute(eng *engine.Engine, line string, out io.Writer) (done bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	switch line {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, "A1 = <content>   write a cell (content starting with '=' is a formula)")
		fmt.Fprintln(out, "A1               read a cell's evaluated value")
		fmt.Fprintln(out, ":sheets          list sheet names")
		fmt.Fprintln(out, ":quit            exit")
		return false
	case ":sheets":
		fmt.Fprintln(out, strings.Join(eng.SheetNames(workbook), ", "))
		return false
	}

	if a1, content, isWrite := strings.Cut(line, "="); isWrite {
		a1 = strings.TrimSpace(a1)
		col, row, ok := address.ParseA1(a1)
		if !ok {
			fmt.Fprintf(out, "bad cell reference %q\n", a1)
			return false
		}
		content = strings.TrimSpace(content)
		raw := engine.ParseLiteralContent(content)
		if raw.IsFormula() {
			if _, errs := parser.ParseFormula(raw.Text); len(errs) > 0 {
				fmt.Fprintln(out, parser.FormatParseErrors(errs, raw.Text))
				return false
			}
		}
		eng.SetCellContent(workbook, sheet, col, row, raw)
		return false
	}

	col, row, ok := address.ParseA1(line)
	if !ok {
		fmt.Fprintf(out, "bad cell reference %q\n", line)
		return false
	}
	value, _ := eng.GetCellValue(workbook, sheet, col, row)
	fmt.Fprintln(out, value)
	return false
}
