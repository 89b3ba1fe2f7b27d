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

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrRoomNotFound("92613")
	errors.Wrap(err, "failed to decode manifest")
	s.ErrorIs(err, ErrRoomNotFound)
	s.Equal(Code(ErrRoomNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newLiveError("new error", ErrRoomNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrRoomNotFound))
}

func (s *ErrSuite) TestWrap() {
	// Input 相关错误。
	s.ErrorIs(WrapErrInvalidInput("   ", "empty input"), ErrInvalidInput)
	s.ErrorIs(WrapErrAmbiguousInput("watch 92613"), ErrAmbiguousInput)
	s.ErrorIs(WrapErrURLParse("://x", errors.New("missing scheme")), ErrURLParse)

	// Transport 相关错误。
	s.ErrorIs(WrapErrTransport(errors.New("dial tcp: refused")), ErrTransport)
	s.ErrorIs(WrapErrTransportStatus(503, "playurl"), ErrTransport)

	// Decode/Parse 相关错误。
	s.ErrorIs(WrapErrFrameDecode("frame shorter than header"), ErrFrameDecode)
	s.ErrorIs(WrapErrParse("room_info.data"), ErrParse)

	// Room/Variant 相关错误。
	s.ErrorIs(WrapErrRoomNotFound("92613"), ErrRoomNotFound)
	s.ErrorIs(WrapErrRoomNotLiving("92613"), ErrRoomNotLiving)
	s.ErrorIs(WrapErrVariantNotFound("92613", "huya-2000"), ErrVariantNotFound)

	// 鉴权状态。
	s.ErrorIs(WrapErrNeedsPassword("92613"), ErrNeedsPassword)
	s.ErrorIs(WrapErrNeedsLogin("bilibili"), ErrNeedsLogin)

	// Credential 与 Session。
	s.ErrorIs(WrapErrSecretFetch("wbi_keys", errors.New("nav 403")), ErrSecretFetch)
	s.ErrorIs(WrapErrSessionStopped("douyu", "9999"), ErrSessionStopped)
}

func (s *ErrSuite) TestRetriable() {
	s.True(IsRetryableErr(ErrTransport))
	s.True(IsRetryableErr(ErrSecretFetch))
	s.False(IsRetryableErr(ErrInvalidInput))
	s.False(IsRetryableErr(errors.New("not a live error")))
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(WrapErrAsInputError(ErrAmbiguousInput)))
	s.Equal(SystemError, GetErrorType(ErrTransport))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond, errThird)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.True(errors.Is(err, errThird))
	s.Equal("first: second: third", err.Error())

	s.NoError(Combine(nil, nil))
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")
	s.Error(Combine(nil, err))
	s.Error(Combine(err, nil))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
