package fs

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/locxpath"
)

// LoadURLs reads one URL per line from path. Blank lines and lines
// starting with # are skipped. Lines that are not absolute http(s) URLs are
// dropped and reported in warnings with their line number.
func LoadURLs(path string) (urls []string, warnings []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, locxpath.Errorf(locxpath.ENOTFOUND, "URL file not found: %s", path)
		}
		return nil, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !locxpath.ValidURL(line) {
			warnings = append(warnings, fmt.Sprintf("%s:%d: invalid URL skipped: %s", path, n, line))
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, warnings, nil
}
