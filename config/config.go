//  Copyright (c) 2026 the Nullinfer Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the engine's tunable parameters.
package config

import "runtime"

// Config carries the knobs the driver honours for one analysis.
type Config struct {
	// Parallelism bounds the number of translation units analysed
	// concurrently in each builder stage. Values below 1 fall back to the
	// default.
	Parallelism int
}

// Default returns the configuration the driver uses when the caller supplies
// no options.
func Default() Config {
	return Config{Parallelism: runtime.GOMAXPROCS(0)}
}

// EffectiveParallelism normalises the configured parallelism.
func (c Config) EffectiveParallelism() int {
	if c.Parallelism < 1 {
		return Default().Parallelism
	}
	return c.Parallelism
}
