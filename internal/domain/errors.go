package domain

import (
	"errors"
	"fmt"
)

// ErrorCode は、呼び出し元やテストが判別できるエラー分類コードです
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	ErrCodeUpstream         ErrorCode = "UPSTREAM_ERROR"
	ErrCodeEmptyResult      ErrorCode = "EMPTY_RESULT"
	ErrCodePersistence      ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeBusy             ErrorCode = "BUSY"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// DomainError は、エラーコードと原因を保持するエラー型です
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is は、同じコードを持つDomainError同士を等価とみなします
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Cause == nil
}

// NewDomainError は新しいDomainErrorを作成します
func NewDomainError(code ErrorCode, msg string, cause error) *DomainError {
	return &DomainError{Code: code, Message: msg, Cause: cause}
}

// ドメイン固有のエラー型を定義
var (
	// ErrEmptyPrompt は、プロンプトが空または空白のみの場合のエラーです
	ErrEmptyPrompt = &DomainError{Code: ErrCodeValidation, Message: "プロンプトが空です"}

	// ErrRetriesExhausted は、一時的なエラーがリトライ上限を超えた場合のエラーです
	ErrRetriesExhausted = &DomainError{Code: ErrCodeRetriesExhausted, Message: "リトライ回数の上限に達しました"}

	// ErrUpstream は、リトライ対象外のHTTPエラーや通信エラーです
	ErrUpstream = &DomainError{Code: ErrCodeUpstream, Message: "生成APIの呼び出しに失敗しました"}

	// ErrNoImage は、バッチ全体で画像が1枚も得られなかった場合のエラーです
	ErrNoImage = &DomainError{Code: ErrCodeEmptyResult, Message: "AIから画像が返されませんでした"}

	// ErrPersistence は、画像や履歴の保存に失敗した場合のエラーです
	ErrPersistence = &DomainError{Code: ErrCodePersistence, Message: "保存に失敗しました"}

	// ErrBusy は、同じユーザーの生成が進行中の場合のエラーです
	ErrBusy = &DomainError{Code: ErrCodeBusy, Message: "前のリクエストを処理中です"}

	// ErrInvalidAttachment は、添付画像が不正な場合のエラーです
	ErrInvalidAttachment = &DomainError{Code: ErrCodeInvalidInput, Message: "添付画像が不正です"}
)

// Wrap は、sentinelのコードを引き継いだまま原因を付与したエラーを返します
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return &DomainError{Code: sentinel.Code, Message: sentinel.Message, Cause: cause}
}

// CodeOf は、ラップされたエラーからエラーコードを取り出します
// DomainErrorを含まないエラーはErrCodeInternalになります
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}
