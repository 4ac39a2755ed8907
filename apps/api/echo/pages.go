package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	appfs "github.com/Mufti-IBAK/mubeen-website-sub001/fs"
)

const pagesDir = "templates/pages"

// pageRenderer renders the public HTML pages. Every page is parsed with the _layout.
type pageRenderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*pageRenderer)(nil)

func newPageRenderer() (*pageRenderer, error) {
	entries, err := fs.ReadDir(appfs.FS, pagesDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading page templates")
	}

	r := &pageRenderer{pages: make(map[string]*template.Template)}
	layout := path.Join(pagesDir, "_layout.gohtml")
	for _, e := range entries {
		fname := e.Name()
		if e.IsDir() || strings.HasPrefix(fname, "_") || path.Ext(fname) != ".gohtml" {
			continue
		}
		tmpl, err := template.ParseFS(appfs.FS, layout, path.Join(pagesDir, fname))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing page %s", fname)
		}
		r.pages[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *pageRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

type (
	registerPage struct {
		Title   string
		Program program.Program
		Message string
		Form    template.HTML // rendered by form.Renderer
	}

	submittedPage struct {
		Title     string
		Program   program.Program
		Reference string
	}
)
