package service

import (
	"errors"
	"fmt"
)

// 错误分类，handler 层据此映射 HTTP 状态码
type ErrKind string

const (
	KindNotFound   ErrKind = "not_found"
	KindTimeout    ErrKind = "timeout"
	KindExternal   ErrKind = "external_service_failure"
	KindValidation ErrKind = "validation_error"
	KindUnknown    ErrKind = "unknown"
)

type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func E(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind ErrKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 取出错误分类，非本包错误一律归入 unknown
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
