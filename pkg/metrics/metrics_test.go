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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	Register(r)
	assert.Equal(t, prometheus.Registerer(r), GetRegisterer())

	DanmakuEvents.WithLabelValues("bilibili", "chat-message").Inc()
	ActiveSessions.WithLabelValues("douyu").Set(1)
	ManifestDecodeDuration.WithLabelValues("huya", SuccessLabel).Observe(12)

	families, err := r.Gather()
	assert.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["live_garden_danmaku_events_total"])
	assert.True(t, names["live_garden_active_sessions"])
	assert.True(t, names["live_garden_manifest_decode_duration_ms"])
}
