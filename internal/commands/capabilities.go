package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// systemClipboard writes to the desktop clipboard through xclip, xsel,
// pbcopy or the Windows API, whichever the platform has.
type systemClipboard struct{}

func (systemClipboard) WriteText(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// promptConfirmer asks on out and reads a y/N answer from in.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// dirDownloader writes each file into dir. Only the base name is used, so a
// file name cannot escape dir.
type dirDownloader struct {
	dir     string
	written []string
}

func (d *dirDownloader) Download(_ context.Context, name, _ string, data []byte) error {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "untitled.txt"
	}
	path := filepath.Join(d.dir, base)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	d.written = append(d.written, path)
	return nil
}
