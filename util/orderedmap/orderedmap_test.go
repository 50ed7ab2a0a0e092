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

package orderedmap_test

import (
	"testing"

	"github.com/inferlab/nullinfer/util/orderedmap"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLoadStore(t *testing.T) {
	t.Parallel()

	pairs := [][2]int{{1, 2}, {2, 3}, {3, 4}}
	m := orderedmap.New[int, int]()
	for _, p := range pairs {
		k, v := p[0], p[1]
		m.Store(k, v)
		loaded, ok := m.Load(k)
		require.True(t, ok)
		require.Equal(t, v, loaded)
		require.Equal(t, v, m.Value(k))
	}

	v, ok := m.Load(-1)
	require.False(t, ok)
	require.Zero(t, v)
	require.Zero(t, m.Value(-1))

	require.Equal(t, len(pairs), m.Len())
}

func TestStoreOverwriteKeepsOrder(t *testing.T) {
	t.Parallel()

	m := orderedmap.New[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("a", 3)

	require.Equal(t, 2, m.Len())
	require.Equal(t, "a", m.Pairs[0].Key)
	require.Equal(t, 3, m.Pairs[0].Value)
	require.Equal(t, "b", m.Pairs[1].Key)
}

func TestOrderedRange(t *testing.T) {
	t.Parallel()

	m := orderedmap.New[int, string]()
	for i := 9; i >= 0; i-- {
		m.Store(i, "v")
	}

	var keys []int
	m.OrderedRange(func(k int, _ string) bool {
		keys = append(keys, k)
		return true
	})
	require.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, keys)

	// Early exit.
	var count int
	m.OrderedRange(func(int, string) bool {
		count++
		return count < 3
	})
	require.Equal(t, 3, count)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
