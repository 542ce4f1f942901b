package model

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/oneconcern/amos/pkg/model/status"
)

// Format is the legacy string file format associated with a version
type Format int

const (
	// FormatLegacy is used up to 1.9: variables are escaped, placeholders are bare $a
	FormatLegacy Format = 1

	// FormatCurrent is used since 2.0: placeholders are wrapped as {$a}
	FormatCurrent Format = 2

	firstCurrentCode = 2000
	firstTensCode    = 3010
)

var branchRex = regexp.MustCompile(`^MOODLE_(\d)(\d{1,2})_STABLE$`)

// Version identifies a product branch. Versions are totally ordered by Code.
type Version struct {
	Code   int    `json:"code" yaml:"code"`
	Label  string `json:"label" yaml:"label"`
	Branch string `json:"branch" yaml:"branch"`
	_      struct{}
}

// VersionByCode resolves a version from its numeric code (e.g. 2000 for 2.0).
//
// Up to 3.0, minor versions are counted in hundreds (1900 for 1.9).
// Since 3.1, they are counted in tens (3010 for 3.1, 3100 for 3.10).
func VersionByCode(code int) (Version, error) {
	major := code / 1000
	if major == 0 || major > 9 {
		return Version{}, status.ErrInvalidVersion.Wrapf("code %d", code)
	}

	var minor int
	if code < firstTensCode {
		if code%100 != 0 {
			return Version{}, status.ErrInvalidVersion.Wrapf("code %d", code)
		}
		minor = (code % 1000) / 100
	} else {
		if code%10 != 0 {
			return Version{}, status.ErrInvalidVersion.Wrapf("code %d", code)
		}
		minor = (code % 1000) / 10
	}

	return Version{
		Code:   code,
		Label:  fmt.Sprintf("%d.%d", major, minor),
		Branch: fmt.Sprintf("MOODLE_%d%d_STABLE", major, minor),
	}, nil
}

// VersionByBranch resolves a version from its branch name (e.g. MOODLE_20_STABLE for 2.0)
func VersionByBranch(branch string) (Version, error) {
	m := branchRex.FindStringSubmatch(branch)
	if m == nil {
		return Version{}, status.ErrInvalidVersion.Wrapf("branch %q", branch)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	if major < 3 || (major == 3 && minor == 0) {
		if minor > 9 {
			return Version{}, status.ErrInvalidVersion.Wrapf("branch %q", branch)
		}
		return VersionByCode(major*1000 + minor*100)
	}
	return VersionByCode(major*1000 + minor*10)
}

// MustVersion resolves a version from its branch name or panics
func MustVersion(branch string) Version {
	v, err := VersionByBranch(branch)
	if err != nil {
		panic(err)
	}
	return v
}

// Format yields the legacy file format used by strings on this version
func (v Version) Format() Format {
	if v.Code < firstCurrentCode {
		return FormatLegacy
	}
	return FormatCurrent
}

// Before tells if v is strictly older than other
func (v Version) Before(other Version) bool {
	return v.Code < other.Code
}

func (v Version) String() string {
	return v.Label
}
