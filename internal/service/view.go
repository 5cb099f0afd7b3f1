package service

import (
	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/workspace"
)

// View is what the presentation layer renders after an operation.
type View struct {
	Bin        model.Bin           `json:"bin"`
	ActiveFile int                 `json:"activeFile"`
	Chars      int                 `json:"chars"`
	Lines      int                 `json:"lines"`
	Saved      []workspace.Summary `json:"saved"`
	Languages  []model.Language    `json:"languages"`
}

// ActiveFileData is the file currently shown in the editor.
func (v View) ActiveFileData() model.File {
	return v.Bin.Files[v.ActiveFile]
}

func buildView(st *workspace.State, query string) View {
	bin := st.Current().Clone()
	chars, lines := st.CurrentFile().Counts()
	return View{
		Bin:        bin,
		ActiveFile: st.ActiveFile,
		Chars:      chars,
		Lines:      lines,
		Saved:      st.List(query),
		Languages:  model.Languages(),
	}
}

// Result is the outcome of one editor operation: a status message for the
// user and the view to render. An empty Status leaves the previous message
// on screen.
type Result struct {
	Status string `json:"status"`
	Link   string `json:"link,omitempty"`
	View   View   `json:"view"`
}

// Export is a downloadable JSON rendition of one bin.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}
