package version

import (
	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("1.0.0")
