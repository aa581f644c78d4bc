package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/parser"
)

// console reads commands from r until EOF or ctx is done. Results and errors
// are written to w.
func console(ctx context.Context, r io.Reader, w io.Writer, p *parser.Parser, d *dispatcher.Dispatcher, logger *slog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Warn("console read failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				logger.Debug("console closed")
				return
			}
			runLine(line, w, p, d)
		}
	}
}

func runLine(line string, w io.Writer, p *parser.Parser, d *dispatcher.Dispatcher) {
	e, err := p.ParseLine(line)
	if errors.Is(err, parser.ErrEmptyLine) {
		return
	}
	if err != nil {
		fmt.Fprintln(w, "error:", err)
		return
	}
	res, err := d.Dispatch(e)
	if err != nil {
		fmt.Fprintln(w, "error:", err)
		return
	}
	printResult(w, res)
}

func printResult(w io.Writer, res any) {
	switch v := res.(type) {
	case nil:
	case string:
		if v != "" {
			fmt.Fprintln(w, "ok:", v)
		}
	case []string:
		fmt.Fprintln(w, strings.Join(v, " "))
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return
		}
		fmt.Fprintln(w, string(out))
	}
}
