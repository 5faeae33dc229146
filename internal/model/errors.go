// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, policy, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeNotApproved             = "NOT_APPROVED"
	ErrCodeInvalidResetCredentials = "INVALID_RESET_CREDENTIALS"
	ErrCodeDuplicateName           = "DUPLICATE_NAME"
	ErrCodeDuplicateTeamName       = "DUPLICATE_TEAM_NAME"
	ErrCodeEmptyContent            = "EMPTY_CONTENT"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeOutOfStock              = "OUT_OF_STOCK"
	ErrCodeCategoryInUse           = "CATEGORY_IN_USE"
)

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "踊り子名またはパスワードまたは役職が正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewNotApprovedError は未承認ダンサーのログイン拒否エラーを生成する。
func NewNotApprovedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotApproved,
		Message:  "まだ承認されていません。",
		Category: "auth",
		Action:   "代表またはスタッフの承認をお待ちください。",
	}
}

// NewInvalidResetCredentialsError はパスワード再設定の照合失敗エラーを生成する。
func NewInvalidResetCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetCredentials,
		Message:  "入力された情報が正しくありません。",
		Category: "auth",
		Action:   "踊り子名・役職・秘密の合言葉を確認してください。",
	}
}

// NewDuplicateNameError は同一チーム内での踊り子名重複エラーを生成する。
func NewDuplicateNameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateName,
		Message:  "この踊り子名は既にこのチームで使用されています。",
		Category: "validation",
		Action:   "別の踊り子名で登録してください。",
	}
}

// NewDuplicateTeamNameError はチーム名重複エラーを生成する。
func NewDuplicateTeamNameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateTeamName,
		Message:  "このチーム名は既に登録されています。",
		Category: "validation",
		Action:   "別のチーム名で登録してください。",
	}
}

// NewEmptyContentError は空コメントの投稿エラーを生成する。
func NewEmptyContentError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyContent,
		Message:  "コメントを入力してください。",
		Category: "validation",
		Action:   "内容を入力してから投稿してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "policy",
		Action:   "代表またはスタッフにお問い合わせください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewNotFoundError は対象リソースの未検出エラーを生成する。
// labelには「予定」「メンバー」などの表示名を渡す。
func NewNotFoundError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", label),
		Category: "resource",
		Action:   "一覧を再読み込みしてから再度お試しください。",
	}
}

// NewOutOfStockError は在庫不足エラーを生成する。
func NewOutOfStockError() *APIError {
	return &APIError{
		Code:     ErrCodeOutOfStock,
		Message:  "在庫が不足しています。",
		Category: "resource",
		Action:   "在庫数を確認してください。",
	}
}

// NewCategoryInUseError は使用中カテゴリの削除拒否エラーを生成する。
func NewCategoryInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeCategoryInUse,
		Message:  "このカテゴリには動画が登録されているため削除できません。",
		Category: "resource",
		Action:   "カテゴリ内の動画を削除または移動してから再度お試しください。",
	}
}
