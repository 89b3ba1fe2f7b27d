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

package conc

import (
	"fmt"
	"runtime"
	"sync"

	ants "github.com/panjf2000/ants/v2"
)

// Pool 是泛型化的协程池封装。
//
// 说明：
//   - T 为任务返回值类型；
//   - 池内任务统一通过 Submit 提交，返回 *Future[T]；
//   - 底层由 ants 池驱动，panic 处理与阻塞策略见 options.go。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建一个容量为 cap 的协程池。
// cap 小于等于 0 时使用 GOMAXPROCS。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	if cap <= 0 {
		cap = runtime.GOMAXPROCS(0)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		// ants 仅在非法容量时返回错误，这里属于编程错误。
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// Submit 提交一个任务并返回其 Future。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		defer func() {
			if x := recover(); x != nil {
				future.err = fmt.Errorf("panicked with error: %v", x)
				panic(x)
			}
		}()

		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}

		res, err := method()
		if err != nil {
			future.err = err
			return
		}
		future.value = res
	})
	if err != nil {
		future.err = err
		close(future.ch)
	}

	return future
}

// Running 返回当前正在执行任务的 worker 数量。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回当前空闲的 worker 数量。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Release 关闭协程池并回收 worker。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}

var (
	defaultPool     *Pool[struct{}]
	defaultPoolOnce sync.Once
)

// DefaultPool 返回进程级共享协程池。
// 容量为 GOMAXPROCS 的 8 倍，满时阻塞调用方。
func DefaultPool() *Pool[struct{}] {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool[struct{}](runtime.GOMAXPROCS(0)*8, WithConcealPanic(true))
	})
	return defaultPool
}

// Go 在共享协程池中执行 f，用于替代裸 go 关键字。
// 返回的 Future 可用于等待任务结束并获取错误。
func Go(f func() (struct{}, error)) *Future[struct{}] {
	return DefaultPool().Submit(f)
}
