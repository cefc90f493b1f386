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

// Package format renders tax reports for output: a canonical JSON shape
// and a plain-text form for the terminal.
package format

import (
	json "github.com/goccy/go-json"

	"github.com/ukcgt/cgtcalc/cgt"
)

type jsonMatch struct {
	Rule            string `json:"rule"`
	Quantity        string `json:"quantity"`
	AllowableCost   string `json:"allowable_cost"`
	GainOrLoss      string `json:"gain_or_loss"`
	AcquisitionDate string `json:"acquisition_date,omitempty"`
}

type jsonDisposal struct {
	Date          string      `json:"date"`
	Ticker        string      `json:"ticker"`
	Quantity      string      `json:"quantity"`
	GrossProceeds string      `json:"gross_proceeds"`
	Proceeds      string      `json:"proceeds"`
	Matches       []jsonMatch `json:"matches"`
}

type jsonTaxYear struct {
	Period       string         `json:"period"`
	Disposals    []jsonDisposal `json:"disposals"`
	TotalGain    string         `json:"total_gain"`
	TotalLoss    string         `json:"total_loss"`
	NetGain      string         `json:"net_gain"`
	ExemptAmount string         `json:"exempt_amount,omitempty"`
}

type jsonHolding struct {
	Ticker    string `json:"ticker"`
	Quantity  string `json:"quantity"`
	TotalCost string `json:"total_cost"`
}

type jsonReport struct {
	TaxYears []jsonTaxYear `json:"tax_years"`
	Holdings []jsonHolding `json:"holdings"`
}

// JSON renders the report in the canonical JSON shape. Decimals are
// emitted as strings so no precision is lost in transit.
func JSON(report *cgt.TaxReport) ([]byte, error) {
	out := jsonReport{
		TaxYears: make([]jsonTaxYear, 0, len(report.TaxYears)),
		Holdings: make([]jsonHolding, 0, len(report.Holdings)),
	}

	for _, year := range report.TaxYears {
		jsonYear := jsonTaxYear{
			Period:    year.Period.String(),
			Disposals: make([]jsonDisposal, 0, len(year.Disposals)),
			TotalGain: year.TotalGain.String(),
			TotalLoss: year.TotalLoss.String(),
			NetGain:   year.NetGain.String(),
		}
		if year.ExemptAmount != nil {
			jsonYear.ExemptAmount = year.ExemptAmount.String()
		}

		for _, disposal := range year.Disposals {
			jsonDisp := jsonDisposal{
				Date:          disposal.Date.Format("2006-01-02"),
				Ticker:        disposal.Ticker,
				Quantity:      disposal.Quantity.String(),
				GrossProceeds: disposal.GrossProceeds.String(),
				Proceeds:      disposal.Proceeds.String(),
				Matches:       make([]jsonMatch, 0, len(disposal.Matches)),
			}
			for _, match := range disposal.Matches {
				jm := jsonMatch{
					Rule:          string(match.Rule),
					Quantity:      match.Quantity.String(),
					AllowableCost: match.AllowableCost.String(),
					GainOrLoss:    match.GainOrLoss.String(),
				}
				if match.AcquisitionDate != nil {
					jm.AcquisitionDate = match.AcquisitionDate.Format("2006-01-02")
				}
				jsonDisp.Matches = append(jsonDisp.Matches, jm)
			}
			jsonYear.Disposals = append(jsonYear.Disposals, jsonDisp)
		}

		out.TaxYears = append(out.TaxYears, jsonYear)
	}

	for _, holding := range report.Holdings {
		out.Holdings = append(out.Holdings, jsonHolding{
			Ticker:    holding.Ticker,
			Quantity:  holding.Quantity.String(),
			TotalCost: holding.TotalCost.String(),
		})
	}

	return json.MarshalIndent(out, "", "  ")
}
