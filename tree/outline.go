package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/ammiranda/td/models"
)

// WriteOutline prints the tree as an indented checklist, two spaces per level.
func (t Tree) WriteOutline(w io.Writer) error {
	return writeLevel(w, t, 0)
}

// Outline returns WriteOutline's output as a string.
func (t Tree) Outline() string {
	var b strings.Builder
	_ = t.WriteOutline(&b)
	return b.String()
}

func writeLevel(w io.Writer, t Tree, depth int) error {
	for _, b := range t.Sorted() {
		mark := " "
		if b.Node.Status == models.StatusCompleted {
			mark = "x"
		}
		if _, err := fmt.Fprintf(w, "%s- [%s] %s (%s)\n",
			strings.Repeat("  ", depth), mark, b.Node.Title, b.Node.Type.Alias()); err != nil {
			return err
		}
		if err := writeLevel(w, b.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}
