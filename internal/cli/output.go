package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"linecheck/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// summarizeEmbedding renders a vector without flooding the terminal.
func summarizeEmbedding(v []float64, show int) string {
	if v == nil {
		return "<absent>"
	}
	n := show
	if n > len(v) {
		n = len(v)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.4f", v[i])
	}
	s := fmt.Sprintf("[%d] %s", len(v), strings.Join(parts, " "))
	if len(v) > n {
		s += " ..."
	}
	return s
}

func truncateText(text string, max int) string {
	r := []rune(text)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return text
}

func printLine(w io.Writer, l domain.Line, show int) {
	if l.ID != nil {
		fmt.Fprintf(w, "_id:       %v\n", l.ID)
	}
	fmt.Fprintf(w, "book:      %s\n", l.Book)
	fmt.Fprintf(w, "lineNo:    %d\n", l.LineNo)
	fmt.Fprintf(w, "text:      %s\n", l.Text)
	fmt.Fprintf(w, "embedding: %s\n", summarizeEmbedding(l.Embedding, show))
}

// printLines lists lines as "n. book:lineNo" followed by the quoted text.
func printLines(w io.Writer, lines []domain.Line) {
	for i, l := range lines {
		fmt.Fprintf(w, "%d. %s:%d\n", i+1, l.Book, l.LineNo)
		fmt.Fprintf(w, "   %q\n", truncateText(l.Text, 100))
	}
}

func printScoredLines(w io.Writer, results []domain.ScoredLine) {
	for i, r := range results {
		fmt.Fprintf(w, "%d. [%.3f] %s:%d\n", i+1, r.Score, r.Line.Book, r.Line.LineNo)
		fmt.Fprintf(w, "   %q\n", truncateText(r.Line.Text, 100))
	}
}
