package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// IsTIFF reports whether filename has a TIFF extension.
func IsTIFF(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

// CollectTIFFs expands args into a list of TIFF files. Directories are
// walked recursively; files without a TIFF extension are skipped.
func CollectTIFFs(args ...string) ([]string, error) {
	files := []string{}
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return nil, fmt.Errorf("collect %s: %w", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %w", arg, err)
			}
			for _, content := range contents {
				more, err := CollectTIFFs(filepath.Join(arg, content.Name()))
				if err != nil {
					return nil, err
				}
				files = append(files, more...)
			}

		case IsTIFF(arg):
			files = append(files, arg)
		}
	}

	return lo.Uniq(files), nil
}

// A Pair is one image from each channel. The first channel's image is
// the one that gets moved.
type Pair struct {
	One string
	Two string
}

func (p Pair) String() string { return fmt.Sprintf("%s <-> %s", p.One, p.Two) }

// Name identifies the pair in logs and output files.
func (p Pair) Name() string { return filepath.Base(p.One) }

// PairFiles matches the two channels up by position once each has
// been sorted by file name. Both channels must hold the same number of
// files, no file may appear in both, and base names must be unique
// within a channel since outputs and log rows are keyed by them.
func PairFiles(one, two []string) ([]Pair, error) {
	if dups := lo.Intersect(cleaned(one), cleaned(two)); len(dups) > 0 {
		return nil, fmt.Errorf("pair: %d file(s) in both channels, e.g. %s", len(dups), dups[0])
	}
	for i, files := range [][]string{one, two} {
		if dups := lo.FindDuplicates(lo.Map(files, func(f string, _ int) string { return filepath.Base(f) })); len(dups) > 0 {
			return nil, fmt.Errorf("pair: channel %d has more than one file named %s", i+1, dups[0])
		}
	}
	if len(one) != len(two) {
		return nil, fmt.Errorf("pair: channel one has %d files, channel two has %d", len(one), len(two))
	}

	one, two = sortedByName(one), sortedByName(two)
	return lo.Map(one, func(f string, i int) Pair {
		return Pair{One: f, Two: two[i]}
	}), nil
}

func cleaned(files []string) []string {
	return lo.Map(files, func(f string, _ int) string {
		if abs, err := filepath.Abs(f); err == nil {
			return abs
		}
		return filepath.Clean(f)
	})
}

func sortedByName(files []string) []string {
	out := slices.Clone(files)
	slices.SortStableFunc(out, func(a, b string) int {
		return strings.Compare(filepath.Base(a), filepath.Base(b))
	})
	return out
}
