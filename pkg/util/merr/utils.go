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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case liveError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(liveError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func GetErrorType(err error) ErrorType {
	if merr, ok := err.(liveError); ok {
		return merr.errType
	}

	return SystemError
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(liveError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

// Input 相关错误封装。

func WrapErrInvalidInput(input string, msg ...string) error {
	err := wrapFields(ErrInvalidInput, value("input", input))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrAmbiguousInput 与 WrapErrInvalidInput 有意区分：
// 调用方可以依赖该错误向用户发起二次确认（由错误携带原始输入）。
func WrapErrAmbiguousInput(input string, msg ...string) error {
	err := wrapFields(ErrAmbiguousInput, value("input", input))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrURLParse(rawURL string, cause error, msg ...string) error {
	err := wrapFieldsWithDesc(ErrURLParse, cause.Error(), value("url", rawURL))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Transport 相关错误封装。

func WrapErrTransport(cause error, msg ...string) error {
	err := wrapFieldsWithDesc(ErrTransport, cause.Error())
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTransportStatus(statusCode int, msg ...string) error {
	err := wrapFields(ErrTransport, value("status", statusCode))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Decode/Parse 相关错误封装。

func WrapErrFrameDecode(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrFrameDecode, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParse(what string, msg ...string) error {
	err := wrapFields(ErrParse, value("what", what))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Room/Variant 相关错误封装。

func WrapErrRoomNotFound(roomID string, msg ...string) error {
	err := wrapFields(ErrRoomNotFound, value("room", roomID))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrRoomNotLiving(roomID string, msg ...string) error {
	err := wrapFields(ErrRoomNotLiving, value("room", roomID))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrVariantNotFound(roomID string, variantID string, msg ...string) error {
	err := wrapFields(ErrVariantNotFound,
		value("room", roomID),
		value("variant", variantID),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 平台鉴权状态封装。

func WrapErrNeedsPassword(roomID string, msg ...string) error {
	err := wrapFields(ErrNeedsPassword, value("room", roomID))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrNeedsLogin(platform string, msg ...string) error {
	err := wrapFields(ErrNeedsLogin, value("platform", platform))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Credential 相关错误封装。

func WrapErrSecretFetch(kind string, cause error, msg ...string) error {
	err := wrapFieldsWithDesc(ErrSecretFetch, cause.Error(), value("kind", kind))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Session 相关错误封装。

func WrapErrSessionStopped(platform string, roomID string, msg ...string) error {
	err := wrapFields(ErrSessionStopped,
		value("platform", platform),
		value("room", roomID),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err liveError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err liveError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}
