// Package service contains the editor's business logic.
//
// EditorService owns the single in-memory workspace and runs every editor
// operation against it: flush pending form edits, apply the mutation, persist
// the whole collection through BinStore, and report a status message plus a
// fresh View. Mutations are applied to a copy of the state and swapped in
// only after the store accepted it, so a failed write leaves memory and
// storage in agreement.
//
// The service knows nothing about HTTP or terminals. Side effects that
// belong to the user's environment (clipboard, downloads, confirmation
// prompts) come in as the capability interfaces in capabilities.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/share"
	"github.com/sakif/sourcebin/internal/workspace"
)

// Status messages reported to the user.
const (
	StatusReady         = "SourceBin-like editor ready"
	StatusSaved         = "Bin saved"
	StatusNewBin        = "New bin created"
	StatusDuplicated    = "Bin duplicated"
	StatusDeleted       = "Bin deleted"
	StatusFileAdded     = "File added"
	StatusFileRemoved   = "File removed"
	StatusExported      = "Bin exported as JSON"
	StatusImported      = "JSON imported"
	StatusDownloaded    = "All files downloaded"
	StatusLinkCopied    = "Share link copied"
	StatusSharedMissing = "Shared bin not found locally"
)

// EditorService runs editor operations one at a time.
type EditorService struct {
	mu     sync.Mutex
	store  *BinStore
	state  *workspace.State
	logger *slog.Logger
	deps   deps
}

// NewEditorService loads the collection from store and puts the cursors on
// the first bin.
func NewEditorService(ctx context.Context, store *BinStore, logger *slog.Logger, opts ...Option) *EditorService {
	return &EditorService{
		store:  store,
		state:  workspace.New(store.Load(ctx)),
		logger: logger,
		deps:   defaultDeps(opts),
	}
}

// View returns the current view; query filters the saved-bins list.
func (s *EditorService) View(query string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildView(s.state, query)
}

// Form returns the editor fields for the current bin and file.
func (s *EditorService) Form() workspace.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FormOf()
}

// Snapshot returns a deep copy of the workspace.
func (s *EditorService) Snapshot() *workspace.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// run applies fn to a copy of the state, persists the copy and swaps it in.
// The caller must hold s.mu. status may be rewritten by fn through the
// pointer it receives.
func (s *EditorService) run(ctx context.Context, op, status string, fn func(st *workspace.State, status *string) error) (Result, error) {
	next := s.state.Clone()
	if err := fn(next, &status); err != nil {
		return s.fail(op, err), err
	}
	if err := s.store.Save(ctx, next.Bins); err != nil {
		s.logger.Error("failed to persist bins",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		err = fmt.Errorf("%s: %w", op, err)
		return s.fail(op, err), err
	}
	s.state = next

	s.logger.Info("editor operation",
		slog.String("op", op),
		slog.String("bin", next.CurrentBinID),
		slog.Int("file", next.ActiveFile),
		slog.Int("bins", len(next.Bins)),
	)
	return Result{Status: status, View: buildView(s.state, "")}, nil
}

// fail reports err against the unchanged state.
func (s *EditorService) fail(op string, err error) Result {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		s.logger.Info("editor operation refused",
			slog.String("op", op),
			slog.String("reason", appErr.Message),
		)
	}
	return Result{
		Status: apperror.Message(err, "Operation failed"),
		View:   buildView(s.state, ""),
	}
}

func flush(st *workspace.State, form *workspace.Form, d deps) {
	if form != nil {
		st.ApplyEdits(*form, d.now())
	}
}

// PersistEdits copies the form into the current bin and file.
func (s *EditorService) PersistEdits(ctx context.Context, form workspace.Form) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "persist edits", "", func(st *workspace.State, _ *string) error {
		st.ApplyEdits(form, s.deps.now())
		return nil
	})
}

// Save is PersistEdits triggered explicitly by the user.
func (s *EditorService) Save(ctx context.Context, form workspace.Form) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "save", StatusSaved, func(st *workspace.State, _ *string) error {
		st.ApplyEdits(form, s.deps.now())
		return nil
	})
}

// NewBin flushes pending edits and prepends a fresh default bin.
func (s *EditorService) NewBin(ctx context.Context, form *workspace.Form) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "new bin", StatusNewBin, func(st *workspace.State, _ *string) error {
		flush(st, form, s.deps)
		st.Prepend(defaultBin(s.deps))
		return nil
	})
}

// DuplicateBin flushes pending edits and prepends a deep copy of the current
// bin titled "<title> (copy)".
func (s *EditorService) DuplicateBin(ctx context.Context, form *workspace.Form) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "duplicate bin", StatusDuplicated, func(st *workspace.State, _ *string) error {
		flush(st, form, s.deps)
		st.Duplicate(s.deps.newID(), s.deps.now())
		return nil
	})
}

// DeleteBin removes the current bin after confirm agrees. Pending edits are
// discarded. Deleting the last bin is refused; a declined confirmation
// changes nothing and reports no status.
func (s *EditorService) DeleteBin(ctx context.Context, confirm Confirmer) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Bins) == 1 {
		err := apperror.Refused(workspace.MsgLastBin)
		return s.fail("delete bin", err), err
	}
	target := s.state.Current()
	if !confirm.Confirm(ctx, fmt.Sprintf("Delete %q?", target.Title)) {
		return Result{View: buildView(s.state, "")}, nil
	}
	return s.run(ctx, "delete bin", StatusDeleted, func(st *workspace.State, _ *string) error {
		_, err := st.DeleteCurrent()
		return err
	})
}

// AddFile appends a placeholder file to the current bin and activates it.
func (s *EditorService) AddFile(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "add file", StatusFileAdded, func(st *workspace.State, _ *string) error {
		st.AddFile(s.deps.now())
		return nil
	})
}

// RemoveFile removes the active file. A bin's last file cannot be removed.
func (s *EditorService) RemoveFile(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "remove file", StatusFileRemoved, func(st *workspace.State, _ *string) error {
		_, err := st.RemoveFile(s.deps.now())
		return err
	})
}

// SelectBin makes the bin with id current, as picked from the saved list.
func (s *EditorService) SelectBin(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "select bin", "", func(st *workspace.State, status *string) error {
		b, err := st.SelectBin(id)
		if err != nil {
			return err
		}
		*status = "Loaded bin: " + b.Title
		return nil
	})
}

// SelectFile moves the file cursor within the current bin.
func (s *EditorService) SelectFile(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "select file", "", func(st *workspace.State, _ *string) error {
		return st.SelectFile(index)
	})
}

// Open resolves the bin named by a share link when the editor starts. An
// empty token just reports readiness; an unknown one reports that the bin
// is not available locally and keeps the current selection. Only the cursors
// move, so nothing is written, and reopening the current bin keeps its
// active file.
func (s *EditorService) Open(_ context.Context, token string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" || token == s.state.CurrentBinID {
		return Result{Status: StatusReady, View: buildView(s.state, "")}, nil
	}
	if _, err := s.state.SelectBin(token); err != nil {
		err = apperror.NotFoundMessage(StatusSharedMissing)
		return s.fail("open shared bin", err), err
	}
	s.logger.Info("editor operation",
		slog.String("op", "open shared bin"),
		slog.String("bin", token),
	)
	return Result{Status: StatusReady, View: buildView(s.state, "")}, nil
}

// ExportBin flushes pending edits and renders the current bin as JSON.
func (s *EditorService) ExportBin(ctx context.Context, form *workspace.Form) (Export, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.run(ctx, "export bin", StatusExported, func(st *workspace.State, _ *string) error {
		flush(st, form, s.deps)
		return nil
	})
	if err != nil {
		return Export{}, res, err
	}
	bin := s.state.Current()
	data, err := workspace.EncodeExport(*bin)
	if err != nil {
		return Export{}, s.fail("export bin", err), fmt.Errorf("export bin: encoding: %w", err)
	}
	return Export{
		FileName:    workspace.ExportFileName(bin.Title),
		ContentType: workspace.ExportContentType,
		Data:        data,
	}, res, nil
}

// ImportBin adds a bin parsed from an exported JSON document to the front of
// the collection. Invalid documents leave the collection untouched.
func (s *EditorService) ImportBin(ctx context.Context, blob []byte) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, "import bin", StatusImported, func(st *workspace.State, _ *string) error {
		bin, err := workspace.DecodeImport(blob, s.deps.newID(), s.deps.now())
		if err != nil {
			return err
		}
		st.Prepend(bin)
		return nil
	})
}

// DownloadFiles flushes pending edits and hands every file of the current
// bin to d, in tab order.
func (s *EditorService) DownloadFiles(ctx context.Context, form *workspace.Form, d Downloader) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.run(ctx, "download files", StatusDownloaded, func(st *workspace.State, _ *string) error {
		flush(st, form, s.deps)
		return nil
	})
	if err != nil {
		return res, err
	}
	for _, f := range s.state.Current().Files {
		if err := d.Download(ctx, f.Name, workspace.FileContentType, []byte(f.Content)); err != nil {
			err = fmt.Errorf("download files: %s: %w", f.Name, err)
			return s.fail("download files", err), err
		}
	}
	return res, nil
}

// CopyShareLink flushes pending edits and writes the current bin's share link
// to the clipboard. A clipboard failure is reported with the link itself as
// the fallback and is not an error.
func (s *EditorService) CopyShareLink(ctx context.Context, form *workspace.Form, baseURL string, cb Clipboard) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.run(ctx, "copy share link", StatusLinkCopied, func(st *workspace.State, _ *string) error {
		flush(st, form, s.deps)
		return nil
	})
	if err != nil {
		return res, err
	}
	link, err := share.Link(baseURL, s.state.CurrentBinID)
	if err != nil {
		err = apperror.ValidationFailed("baseURL", err.Error())
		return s.fail("copy share link", err), err
	}
	res.Link = link
	if err := cb.WriteText(ctx, link); err != nil {
		s.logger.Warn("clipboard write failed",
			slog.String("link", link),
			slog.String("error", err.Error()),
		)
		res.Status = "Copy failed. Link: " + link
	}
	return res, nil
}
