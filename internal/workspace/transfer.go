package workspace

import (
	"bytes"
	"encoding/json"
	"regexp"
	"time"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/model"
)

const (
	MsgImportFailed   = "Failed to import JSON"
	ExportContentType = "application/json"
	FileContentType   = "text/plain; charset=utf-8"
)

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ExportFileName derives the download name of an exported bin from its title.
func ExportFileName(title string) string {
	name := unsafeFileNameChars.ReplaceAllString(title, "_")
	if name == "" {
		name = "bin"
	}
	return name + ".json"
}

// EncodeExport renders exactly one bin as indented JSON.
func EncodeExport(bin model.Bin) ([]byte, error) {
	return json.MarshalIndent(bin, "", "  ")
}

// importPayload only names the fields an import keeps; identifiers and
// timestamps are always reassigned.
type importPayload struct {
	Title      string           `json:"title"`
	Visibility model.Visibility `json:"visibility"`
	Expiration model.Expiration `json:"expiration"`
	Files      json.RawMessage  `json:"files"`
}

// DecodeImport parses an exported bin. The payload must be a JSON object with
// a "files" array; anything else is rejected. The result carries the given
// id, fresh timestamps, and defaults for absent title, visibility,
// expiration and file names and languages.
func DecodeImport(blob []byte, id string, now time.Time) (model.Bin, error) {
	var p importPayload
	if err := json.Unmarshal(blob, &p); err != nil {
		return model.Bin{}, apperror.ValidationFailed("json", MsgImportFailed)
	}
	raw := bytes.TrimSpace(p.Files)
	if len(raw) == 0 || raw[0] != '[' {
		return model.Bin{}, apperror.ValidationFailed("files", MsgImportFailed)
	}
	var files []model.File
	if err := json.Unmarshal(raw, &files); err != nil {
		return model.Bin{}, apperror.ValidationFailed("files", MsgImportFailed)
	}
	if len(files) == 0 {
		files = []model.File{{}}
	}
	for i := range files {
		files[i] = files[i].WithDefaults()
	}

	ts := model.TimestampOf(now)
	bin := model.Bin{
		ID:         id,
		Title:      p.Title,
		Visibility: p.Visibility,
		Expiration: p.Expiration,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Files:      files,
	}
	if bin.Title == "" {
		bin.Title = model.ImportedBinTitle
	}
	if bin.Visibility == "" {
		bin.Visibility = model.DefaultVisibility
	}
	if bin.Expiration == "" {
		bin.Expiration = model.DefaultExpiration
	}
	return bin, nil
}
