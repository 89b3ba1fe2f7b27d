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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// gardenNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	gardenNamespace = "live_garden"

	// 以下为当前使用的通用标签名。
	platformLabelName = "platform"
	methodLabelName   = "method"
	resultLabelName   = "result"

	// result 标签的取值。
	SuccessLabel = "success"
	FailLabel    = "fail"
	BlockedLabel = "blocked"
	EmptyLabel   = "empty"
)

var (
	// decodeBuckets 为 manifest 解码耗时直方图的桶划分，单位为毫秒。
	decodeBuckets = prometheus.ExponentialBuckets(1, 2, 14)

	// ManifestDecodeDuration 记录一次 manifest 解码（含平台接口往返与签名）耗时。
	ManifestDecodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: gardenNamespace,
			Name:      "manifest_decode_duration_ms",
			Help:      "latency of decoding one live manifest",
			Buckets:   decodeBuckets,
		}, []string{platformLabelName, resultLabelName})

	// DanmakuEvents 统计推送给消费方的弹幕事件数量。
	DanmakuEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "danmaku_events_total",
			Help:      "number of danmaku events pushed to consumers",
		}, []string{platformLabelName, methodLabelName})

	// DanmakuDropped 统计被黑名单或清洗规则丢弃的弹幕数量。
	DanmakuDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "danmaku_dropped_total",
			Help:      "number of danmaku messages dropped before emission",
		}, []string{platformLabelName, resultLabelName})

	// ActiveSessions 统计当前存活的弹幕会话数量。
	ActiveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: gardenNamespace,
			Name:      "active_sessions",
			Help:      "number of running danmaku sessions",
		}, []string{platformLabelName})

	// SecretRefreshes 统计派生凭据的刷新次数。
	SecretRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "secret_refreshes_total",
			Help:      "number of derived secret refreshes",
		}, []string{platformLabelName, methodLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(ManifestDecodeDuration)
	r.MustRegister(DanmakuEvents)
	r.MustRegister(DanmakuDropped)
	r.MustRegister(ActiveSessions)
	r.MustRegister(SecretRefreshes)
	metricRegisterer = r
}
