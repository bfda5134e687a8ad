package fs

import (
	"context"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fwojciec/locxpath"
)

// Ensure PageStore implements locxpath.PageStore at compile time.
var _ locxpath.PageStore = (*PageStore)(nil)

// maxFilenameLen caps the stem of a page file name.
const maxFilenameLen = 200

var (
	unsafeChars = regexp.MustCompile(`[^\w\-.]`)
	underscores = regexp.MustCompile(`_+`)
)

// PageStore writes each page to its own file in one directory. Files are
// written atomically; two URLs mapping to the same name overwrite each
// other.
type PageStore struct {
	dir string
}

// NewPageStore creates a PageStore writing into dir. The directory is
// created on the first Save.
func NewPageStore(dir string) *PageStore {
	return &PageStore{dir: dir}
}

// Dir returns the directory pages are written to.
func (s *PageStore) Dir() string {
	return s.dir
}

// Save writes html to dir/PageFilename(url).
func (s *PageStore) Save(ctx context.Context, url, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, PageFilename(url))
	f, err := CreateAtomic(path)
	if err != nil {
		return "", locxpath.Errorf(locxpath.EINTERNAL, "create %s: %v", path, err)
	}
	defer f.Abort()

	if _, err := f.WriteString(html); err != nil {
		return "", locxpath.Errorf(locxpath.EINTERNAL, "write %s: %v", path, err)
	}
	if err := f.Commit(); err != nil {
		return "", locxpath.Errorf(locxpath.EINTERNAL, "save %s: %v", path, err)
	}
	return path, nil
}

// PageFilename derives a file name from the host and path of a URL:
// "https://example.com/news/1" becomes "example.com_news_1.html".
// Characters other than ASCII letters, digits, '-', '_' and '.' become
// underscores, and runs of underscores collapse into one.
func PageFilename(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "page"
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name + ".html"
}
