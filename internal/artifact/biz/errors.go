package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind 错误分类
type Kind int

const (
	KindValidation Kind = iota + 1
	KindStorage
	KindMetadata
	KindNotFound
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindMetadata:
		return "metadata"
	case KindNotFound:
		return "not found"
	case KindQuery:
		return "query"
	}
	return "unknown"
}

// 分类哨兵错误，通过 errors.Is 匹配 *Error
var (
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("blob storage operation failed")
	ErrMetadata   = errors.New("metadata operation failed")
	ErrNotFound   = errors.New("not found")
	ErrQuery      = errors.New("query failed")
)

// 细分原因
var (
	// ErrBlobNotFound blob 适配器在键不存在时返回
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobMissing 元数据存在但 blob 缺失
	ErrBlobMissing = errors.New("metadata references a missing blob")

	ErrEmptyFile       = errors.New("file is empty")
	ErrEmptyName       = errors.New("display name is empty")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrFileType        = errors.New("file type not allowed")
	ErrInvalidPage     = errors.New("invalid page or page size")
	ErrInvalidRange    = errors.New("date range start is after end")
	ErrInvalidTemplate = errors.New("invalid template")
)

// Error 领域错误
type Error struct {
	Kind       Kind
	Op         string
	ID         string
	StorageKey string
	Err        error

	// Warning 补偿失败时附带，不替代主错误
	Warning *ReconciliationWarning
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.ID != "" {
		fmt.Fprintf(&b, " (id=%s)", e.ID)
	}
	if e.StorageKey != "" {
		fmt.Fprintf(&b, " (key=%s)", e.StorageKey)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Warning != nil {
		b.WriteString("; ")
		b.WriteString(e.Warning.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrStorage) 等按分类匹配
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrStorage:
		return e.Kind == KindStorage
	case ErrMetadata:
		return e.Kind == KindMetadata
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrQuery:
		return e.Kind == KindQuery
	}
	return false
}

// ReconciliationWarning 补偿动作本身失败，需要离线对账
type ReconciliationWarning struct {
	Op         string
	StorageKey string
	Err        error
}

func (w *ReconciliationWarning) Error() string {
	return fmt.Sprintf("reconciliation required for %s (op=%s): %v", w.StorageKey, w.Op, w.Err)
}

func (w *ReconciliationWarning) Unwrap() error { return w.Err }

// WarningOf 提取附带的对账警告
func WarningOf(err error) *ReconciliationWarning {
	var e *Error
	if errors.As(err, &e) && e.Warning != nil {
		return e.Warning
	}
	var w *ReconciliationWarning
	if errors.As(err, &w) {
		return w
	}
	return nil
}

// IsIntegrityViolation 元数据指向缺失 blob
func IsIntegrityViolation(err error) bool {
	return errors.Is(err, ErrBlobMissing)
}

// KindOf 返回错误分类，非领域错误返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// metadataError 仓储返回的 ErrNotFound 保持 NotFound 分类
func metadataError(op, id string, err error) *Error {
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, ID: id, Err: err}
	}
	return &Error{Kind: KindMetadata, Op: op, ID: id, Err: err}
}

func storageError(op, key string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, StorageKey: key, Err: err}
}

func queryError(op string, err error) *Error {
	return &Error{Kind: KindQuery, Op: op, Err: err}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
