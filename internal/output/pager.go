package output

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultPageHeight is the line count above which long sheet listings are paged.
const DefaultPageHeight = 40

// ShouldPage reports whether content written to w should go through a pager:
// w must be a terminal and content longer than height lines.
func ShouldPage(w io.Writer, content string, height int) bool {
	if os.Getenv("XLKIT_NO_PAGER") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return false
	}
	return strings.Count(content, "\n") > height
}

// Page pipes content through the user's preferred pager (PAGER env, or "less").
func Page(content string, w io.Writer) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	cmd := exec.Command(pager)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
