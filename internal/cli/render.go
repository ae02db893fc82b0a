package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

const markdownWrapWidth = 100

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderMarkdown styles content with glamour when w is a terminal and writes
// it unchanged otherwise, so piped output stays plain markdown.
func renderMarkdown(w io.Writer, content string) error {
	out := content
	if isTerminal(w) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(markdownWrapWidth),
		)
		if err == nil {
			if rendered, renderErr := renderer.Render(content); renderErr == nil {
				out = rendered
			}
		}
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
