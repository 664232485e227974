package classfile

import (
	"errors"
	"fmt"
)

// ErrMalformed 结构损坏的类文件，可通过 errors.Is 判断
var ErrMalformed = errors.New("malformed class file")

// MalformedError 解析失败的具体原因
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed class file: %s", e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(format string, args ...interface{}) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}
