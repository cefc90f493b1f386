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

// Package exemption provides the annual exempt amount per UK tax year,
// with values for recent years compiled into the binary and optional
// override files.
package exemption

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

//go:embed config.toml
var embeddedConfig []byte

type rawConfig struct {
	Exemptions map[string]decimal.Decimal `toml:"exemptions"`
}

// Table maps a tax year's start year to its annual exempt amount.
type Table struct {
	amounts map[int]decimal.Decimal
}

// Exemption returns the annual exempt amount for a tax year start year.
func (t *Table) Exemption(startYear int) (decimal.Decimal, bool) {
	amount, ok := t.amounts[startYear]
	return amount, ok
}

func (t *Table) Len() int {
	return len(t.amounts)
}

func (t *Table) merge(content []byte) error {
	var raw rawConfig
	if err := toml.Unmarshal(content, &raw); err != nil {
		return err
	}
	for key, amount := range raw.Exemptions {
		year, err := strconv.Atoi(key)
		if err != nil {
			log.Warn().Str("Year", key).Msg("ignoring exemption entry with non-numeric year")
			continue
		}
		t.amounts[year] = amount
	}
	return nil
}

// Embedded returns the exempt amounts compiled into the binary.
func Embedded() *Table {
	table := &Table{amounts: make(map[int]decimal.Decimal)}
	if err := table.merge(embeddedConfig); err != nil {
		log.Error().Err(err).Msg("could not parse embedded exemption config")
	}
	return table
}

// Load returns the embedded amounts merged with any override files.
// Overrides are read from ./cgtcalc.toml and ~/.config/cgtcalc/config.toml;
// later files win per year.
func Load() *Table {
	table := Embedded()

	for _, path := range overridePaths() {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := table.merge(content); err != nil {
			log.Warn().Err(err).Str("File", path).Msg("ignoring unparseable exemption override file")
			continue
		}
		log.Debug().Str("File", path).Msg("merged exemption overrides")
	}

	return table
}

func overridePaths() []string {
	paths := []string{"cgtcalc.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cgtcalc", "config.toml"))
	}
	return paths
}
