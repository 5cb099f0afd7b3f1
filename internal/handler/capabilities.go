package handler

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/service"
)

// zipDownloader collects per-file downloads into one archive. A browser can
// only receive one response per request, so the files travel together.
type zipDownloader struct {
	zw       *zip.Writer
	modified time.Time
	seen     map[string]int
}

func newZipDownloader(zw *zip.Writer, modified time.Time) *zipDownloader {
	return &zipDownloader{zw: zw, modified: modified, seen: make(map[string]int)}
}

// Download adds one entry. Only the base name is kept so no entry extracts
// outside the target folder, and repeated names get a numeric suffix so no
// file shadows another.
func (d *zipDownloader) Download(_ context.Context, name, _ string, data []byte) error {
	name = entryName(name)
	d.seen[name]++
	if n := d.seen[name]; n > 1 {
		ext := path.Ext(name)
		name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	f, err := d.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: d.modified,
	})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s to archive: %w", name, err)
	}
	return nil
}

func entryName(name string) string {
	base := path.Base(path.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." {
		return model.DefaultFileName
	}
	return base
}

// linkClipboard stands in for the browser clipboard: the link is returned in
// the response and the page copies it client-side.
type linkClipboard struct {
	text string
}

func (c *linkClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return nil
}

// queryConfirmer confirms a destructive request only when it carries
// ?confirm=true; the page asks the user before sending it.
func queryConfirmer(r *http.Request) service.Confirmer {
	return service.ConfirmFunc(func(context.Context, string) bool {
		ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		return ok
	})
}
