package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var zeroVersion = semver.MustParse("0.0.0")

// ResolveVersion returns the semantically highest version directory under
// storeRoot/category/name. It fails with ErrNotFound when that directory does
// not exist or contains no version subdirectories.
func ResolveVersion(storeRoot, category, name string) (string, error) {
	return ResolveVersionFunc(storeRoot, category, name, nil)
}

// ResolveVersionFunc is ResolveVersion restricted to the versions for which
// keep returns true. A nil keep accepts every version directory.
func ResolveVersionFunc(storeRoot, category, name string, keep func(version string) bool) (string, error) {
	dir := filepath.Join(storeRoot, category, name)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: no versions of %s/%s in %s", ErrNotFound, category, name, storeRoot)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if keep == nil || keep(entry.Name()) {
			versions = append(versions, entry.Name())
		}
	}

	latest, ok := Latest(versions)
	if !ok {
		return "", fmt.Errorf("%w: no versions of %s/%s in %s", ErrNotFound, category, name, storeRoot)
	}
	return latest, nil
}

// Latest returns the highest version in versions. Equal versions keep their
// input order, so the first of several equal maxima wins.
func Latest(versions []string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if CompareVersions(v, best) > 0 {
			best = v
		}
	}
	return best, true
}

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b. A string that is not a
// semantic version compares as 0.0.0.
func CompareVersions(a, b string) int {
	return parseSemver(a).Compare(parseSemver(b))
}

// Sort orders refs by category, then name, then version descending.
func Sort(refs []Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return CompareVersions(a.Version, b.Version) > 0
	})
}

// parseSemver strips a leading "v" and parses the version string, falling
// back to 0.0.0 for anything unparseable.
func parseSemver(version string) *semver.Version {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return zeroVersion
	}
	return v
}
