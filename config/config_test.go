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

package config_test

import (
	"testing"

	"github.com/inferlab/nullinfer/config"
	"github.com/stretchr/testify/require"
)

func TestEffectiveParallelism(t *testing.T) {
	t.Parallel()

	require.GreaterOrEqual(t, config.Default().EffectiveParallelism(), 1)
	require.Equal(t, 4, config.Config{Parallelism: 4}.EffectiveParallelism())
	require.Equal(t, config.Default().Parallelism, config.Config{Parallelism: 0}.EffectiveParallelism())
	require.Equal(t, config.Default().Parallelism, config.Config{Parallelism: -3}.EffectiveParallelism())
}
