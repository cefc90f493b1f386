// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog/log"
)

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// version falls back to "dev" for builds without release metadata.
func version() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// Generator identifies this build in report footers, e.g.
// "cgtcalc 1.3.0 (a1b2c3d)".
func Generator() string {
	if CommitHash == "" {
		return fmt.Sprintf("cgtcalc %s", version())
	}
	return fmt.Sprintf("cgtcalc %s (%s)", version(), CommitHash)
}

// UserAgent is the HTTP User-Agent sent when fetching HMRC exchange rate
// files.
func UserAgent() string {
	return fmt.Sprintf("cgtcalc/%s (%s/%s)", version(), runtime.GOOS, runtime.GOARCH)
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	return fmt.Sprintf(`cgtcalc %s %s/%s

Build Date: %s
Commit: %s
Built with: %s`, version(), runtime.GOOS, runtime.GOARCH, BuildDate, CommitHash, runtime.Version())
}

// GetDependencyList returns an array of all dependencies linked in with this program
// each string is of the form `package="version"`
func GetDependencyList() []string {
	var deps []string

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return deps
	}

	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)

	return deps
}
