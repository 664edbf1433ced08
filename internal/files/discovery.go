package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Catalog lookup errors
var (
	ErrDataDirMissing = errors.New("data directory not found")
	ErrUnknownYear    = errors.New("unknown year")
	ErrUnknownPeriod  = errors.New("unknown period")
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// WorkbookFile is a data file following the <prefix><year>[-<period>].xlsx
// naming convention. A file without a period covers the whole year.
type WorkbookFile struct {
	FileInfo
	Year   string `json:"year"`
	Period string `json:"period,omitempty"`
}

// Label is the file name without extension, used as the period label in
// multi-period summaries.
func (f WorkbookFile) Label() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// YearGroup holds the files of one year, sorted by name.
type YearGroup struct {
	Year  string         `json:"year"`
	Files []WorkbookFile `json:"files"`
}

// Periods returns the selectable entries of the group in file order: the
// period name of period files and the label of the whole-year file. Both
// are accepted by Catalog.Files.
func (g YearGroup) Periods() []string {
	periods := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		if f.Period != "" {
			periods = append(periods, f.Period)
			continue
		}
		periods = append(periods, f.Label())
	}
	return periods
}

// Catalog is the set of workbook files found in the data directory, grouped
// by year in ascending order.
type Catalog struct {
	Years []YearGroup `json:"years"`
}

// YearNames returns the available years in ascending order.
func (c *Catalog) YearNames() []string {
	years := make([]string, len(c.Years))
	for i, g := range c.Years {
		years[i] = g.Year
	}
	return years
}

// Year returns the group for year.
func (c *Catalog) Year(year string) (YearGroup, bool) {
	for _, g := range c.Years {
		if g.Year == year {
			return g, true
		}
	}
	return YearGroup{}, false
}

// Files resolves the files to load for a selection. In annual mode every file
// of the year is returned in name order and period is ignored. Otherwise the
// file for period is returned; an empty period selects the first file of the
// year, and "-" or the whole-year label selects the file without a period.
func (c *Catalog) Files(year, period string, annual bool) ([]WorkbookFile, error) {
	group, ok := c.Year(year)
	if !ok || len(group.Files) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownYear, year)
	}
	if annual {
		return append([]WorkbookFile(nil), group.Files...), nil
	}
	if period == "" {
		return []WorkbookFile{group.Files[0]}, nil
	}
	for _, f := range group.Files {
		if f.Period == period || f.Label() == period {
			return []WorkbookFile{f}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrUnknownPeriod, period, year)
}

// Paths returns the file paths of files in order.
func Paths(files []WorkbookFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
	pattern  *regexp.Regexp
}

// NewDiscovery creates a discovery rooted at basePath for workbook files
// named with prefix.
func NewDiscovery(basePath, prefix string) *Discovery {
	return &Discovery{
		basePath: basePath,
		pattern:  regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)(?:-([^.]+))?\.(?i:xlsx)$`),
	}
}

// FindExcelFiles finds all .xlsx files in dir, sorted by name. A relative dir
// is resolved against the base path.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirMissing, fullPath)
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Catalog enumerates the data directory and groups matching workbook files by
// year. Files that do not follow the naming convention are ignored.
func (d *Discovery) Catalog() (*Catalog, error) {
	found, err := d.FindExcelFiles(".")
	if err != nil {
		return nil, err
	}

	groups := map[string]*YearGroup{}
	for _, f := range found {
		m := d.pattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		year := m[1]
		g, ok := groups[year]
		if !ok {
			g = &YearGroup{Year: year}
			groups[year] = g
		}
		g.Files = append(g.Files, WorkbookFile{FileInfo: f, Year: year, Period: m[2]})
	}

	catalog := &Catalog{Years: make([]YearGroup, 0, len(groups))}
	for _, g := range groups {
		catalog.Years = append(catalog.Years, *g)
	}
	sort.Slice(catalog.Years, func(i, j int) bool {
		return catalog.Years[i].Year < catalog.Years[j].Year
	})
	return catalog, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []WorkbookFile) (WorkbookFile, bool) {
	if len(files) == 0 {
		return WorkbookFile{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
