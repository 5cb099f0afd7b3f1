package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/service"
)

const dateLayout = "2006-01-02 15:04"

func (r *runner) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list",
			Usage: "list saved bins, most recently updated first",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "only bins whose title contains `TEXT`"},
			},
			Action: r.list,
		},
		{
			Name:   "show",
			Usage:  "print the current bin and its files",
			Action: r.show,
		},
		{
			Name:  "new",
			Usage: "create an empty bin",
			Action: r.mutate(func(ctx context.Context, ed *service.EditorService) (service.Result, error) {
				return ed.NewBin(ctx, nil)
			}),
		},
		{
			Name:  "duplicate",
			Usage: "copy the current bin",
			Action: r.mutate(func(ctx context.Context, ed *service.EditorService) (service.Result, error) {
				return ed.DuplicateBin(ctx, nil)
			}),
		},
		{
			Name:  "delete",
			Usage: "delete the current bin",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
			},
			Action: r.delete,
		},
		{
			Name:  "add-file",
			Usage: "add an empty file to the current bin",
			Action: r.mutate(func(ctx context.Context, ed *service.EditorService) (service.Result, error) {
				return ed.AddFile(ctx)
			}),
		},
		{
			Name:  "remove-file",
			Usage: "remove the selected file from the current bin",
			Action: r.mutate(func(ctx context.Context, ed *service.EditorService) (service.Result, error) {
				return ed.RemoveFile(ctx)
			}),
		},
		{
			Name:  "edit",
			Usage: "change the current bin and selected file",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title"},
				&cli.StringFlag{Name: "visibility", Usage: "public, unlisted or private"},
				&cli.StringFlag{Name: "expiration", Usage: "never, 1h, 1d, 7d or 30d"},
				&cli.StringFlag{Name: "name", Usage: "file name"},
				&cli.StringFlag{Name: "language", Usage: "file language, see 'sourcebin languages'"},
				&cli.StringFlag{Name: "content-file", Usage: "read file content from `PATH` (- for stdin)"},
			},
			Action: r.edit,
		},
		{
			Name:  "export",
			Usage: "write the current bin as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output `PATH` (- for stdout, default <title>.json)"},
			},
			Action: r.export,
		},
		{
			Name:      "import",
			Usage:     "add a bin from an exported JSON file",
			ArgsUsage: "FILE",
			Action:    r.importBin,
		},
		{
			Name:  "download",
			Usage: "write every file of the current bin to a directory",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "dir", Value: ".", Usage: "target `DIR`"},
			},
			Action: r.download,
		},
		{
			Name:  "share",
			Usage: "copy the share link of the current bin to the clipboard",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "base-url",
					Value:   "http://localhost:8080/",
					EnvVars: []string{"SHARE_BASE_URL"},
					Usage:   "page URL the link points at",
				},
			},
			Action: r.share,
		},
		{
			Name:  "languages",
			Usage: "list the supported file languages",
			Action: func(c *cli.Context) error {
				for _, l := range model.Languages() {
					fmt.Fprintln(r.env.Stdout, l)
				}
				return nil
			},
		},
	}
}

// mutate runs op in a session and prints its status.
func (r *runner) mutate(op func(ctx context.Context, ed *service.EditorService) (service.Result, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
			res, err := op(ctx, ed)
			if err != nil {
				return err
			}
			r.status(res)
			fmt.Fprintf(r.env.Stdout, "current: %s %q\n", res.View.Bin.ID, res.View.Bin.Title)
			return nil
		})
	}
}

func (r *runner) list(c *cli.Context) error {
	return r.session(c, func(_ context.Context, ed *service.EditorService) error {
		tw := tabwriter.NewWriter(r.env.Stdout, 0, 4, 2, ' ', 0)
		for _, s := range ed.View(c.String("query")).Saved {
			marker := " "
			if s.Current {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d files\t%s\n",
				marker, s.ID, s.Title, s.FileCount, s.UpdatedAt.Time().Format(dateLayout))
		}
		return tw.Flush()
	})
}

func (r *runner) show(c *cli.Context) error {
	return r.session(c, func(_ context.Context, ed *service.EditorService) error {
		v := ed.View("")
		out := r.env.Stdout
		fmt.Fprintf(out, "%s (%s)\n", v.Bin.Title, v.Bin.ID)
		fmt.Fprintf(out, "visibility: %s, expires: %s, updated: %s\n",
			v.Bin.Visibility, v.Bin.Expiration, v.Bin.UpdatedAt.Time().Format(dateLayout))
		for i, f := range v.Bin.Files {
			marker := ""
			if i == v.ActiveFile {
				marker = " *"
			}
			fmt.Fprintf(out, "\n--- [%d] %s (%s)%s\n", i, f.Name, f.Language, marker)
			fmt.Fprintln(out, f.Content)
		}
		fmt.Fprintf(out, "\n%d chars • %d lines\n", v.Chars, v.Lines)
		return nil
	})
}

func (r *runner) delete(c *cli.Context) error {
	return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
		var confirm service.Confirmer = promptConfirmer{in: r.env.Stdin, out: r.env.Stdout}
		if c.Bool("yes") {
			confirm = service.Always
		}
		res, err := ed.DeleteBin(ctx, confirm)
		if err != nil {
			return err
		}
		if res.Status == "" {
			fmt.Fprintln(r.env.Stdout, "Cancelled")
			return nil
		}
		r.status(res)
		return nil
	})
}

func (r *runner) edit(c *cli.Context) error {
	return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
		form := ed.Form()
		if c.IsSet("title") {
			form.Title = c.String("title")
		}
		if c.IsSet("visibility") {
			form.Visibility = model.Visibility(c.String("visibility"))
		}
		if c.IsSet("expiration") {
			form.Expiration = model.Expiration(c.String("expiration"))
		}
		if c.IsSet("name") {
			form.FileName = c.String("name")
		}
		if c.IsSet("language") {
			form.Language = model.Language(c.String("language"))
		}
		if path := c.String("content-file"); path != "" {
			content, err := r.readInput(path)
			if err != nil {
				return err
			}
			form.Content = string(content)
		}
		res, err := ed.Save(ctx, form)
		if err != nil {
			return err
		}
		r.status(res)
		return nil
	})
}

func (r *runner) export(c *cli.Context) error {
	return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
		exp, res, err := ed.ExportBin(ctx, nil)
		if err != nil {
			return err
		}
		out := c.String("out")
		if out == "" {
			out = exp.FileName
		}
		if out == "-" {
			_, err := r.env.Stdout.Write(append(exp.Data, '\n'))
			return err
		}
		if err := os.WriteFile(out, exp.Data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		r.status(res)
		fmt.Fprintln(r.env.Stdout, out)
		return nil
	})
}

func (r *runner) importBin(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("import needs exactly one FILE argument")
	}
	blob, err := r.readInput(c.Args().First())
	if err != nil {
		return err
	}
	return r.mutate(func(ctx context.Context, ed *service.EditorService) (service.Result, error) {
		return ed.ImportBin(ctx, blob)
	})(c)
}

func (r *runner) download(c *cli.Context) error {
	dir := c.String("dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
		d := &dirDownloader{dir: dir}
		res, err := ed.DownloadFiles(ctx, nil, d)
		if err != nil {
			return err
		}
		for _, path := range d.written {
			fmt.Fprintln(r.env.Stdout, path)
		}
		r.status(res)
		return nil
	})
}

func (r *runner) share(c *cli.Context) error {
	return r.session(c, func(ctx context.Context, ed *service.EditorService) error {
		res, err := ed.CopyShareLink(ctx, nil, c.String("base-url"), r.env.Clipboard)
		if err != nil {
			return err
		}
		r.status(res)
		if res.Status == service.StatusLinkCopied {
			fmt.Fprintln(r.env.Stdout, res.Link)
		}
		return nil
	})
}

// readInput reads path, or stdin for "-".
func (r *runner) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r.env.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
