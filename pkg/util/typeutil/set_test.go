// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetBasic(t *testing.T) {
	set := NewSet("a", "b")
	assert.True(t, set.Contain("a", "b"))
	assert.False(t, set.Contain("c"))

	set.Insert("c")
	assert.True(t, set.Contain("c"))
	assert.Equal(t, 3, set.Len())

	set.Remove("a")
	assert.False(t, set.Contain("a"))
}

func TestSetOperations(t *testing.T) {
	left := NewSet(1, 2, 3)
	right := NewSet(2, 3, 4)

	assert.ElementsMatch(t, []int{2, 3}, left.Intersection(right).Collect())
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, left.Union(right).Collect())
	assert.ElementsMatch(t, []int{1}, left.Complement(right).Collect())
}

func TestConcurrentSet(t *testing.T) {
	set := NewConcurrentSet[int]()
	assert.True(t, set.Insert(1))
	assert.False(t, set.Insert(1))
	assert.True(t, set.Contain(1))

	set.Remove(1)
	assert.False(t, set.Contain(1))
}
