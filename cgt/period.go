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
package cgt

import (
	"fmt"
	"time"
)

// TaxPeriod is a UK tax year (6 April to the following 5 April),
// identified by the calendar year it starts in.
type TaxPeriod int

// PeriodOf returns the tax year a date falls in. 2024-03-15 is in
// 2023/24; 2024-04-06 starts 2024/25.
func PeriodOf(date time.Time) TaxPeriod {
	year := date.Year()
	if date.Month() < time.April || (date.Month() == time.April && date.Day() < 6) {
		year--
	}
	return TaxPeriod(year)
}

// StartYear is the calendar year the tax year begins in.
func (p TaxPeriod) StartYear() int {
	return int(p)
}

// Start is 6 April of the start year.
func (p TaxPeriod) Start() time.Time {
	return Date(int(p), time.April, 6)
}

// End is 5 April of the following year.
func (p TaxPeriod) End() time.Time {
	return Date(int(p)+1, time.April, 5)
}

// String renders the period in HMRC's "2023/24" style.
func (p TaxPeriod) String() string {
	return fmt.Sprintf("%d/%02d", int(p), (int(p)+1)%100)
}
