package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자에게 보여줄 메시지
}

// ParseError DB/외부 에러를 코드와 메시지로 변환
// 내부 정보(SQL, 스택)는 절대 응답에 포함하지 않음
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errLower := strings.ToLower(err.Error())

	// 1. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(errLower, context)
	}

	// 2. PostgreSQL / SQLite 에러 문자열

	// 2-1. Unique constraint violation (23505)
	if IsUniqueViolation(err) {
		return parseDuplicateKeyError(errLower, context)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errLower, "foreign key constraint") {
		if strings.Contains(errLower, "business_id") {
			return ErrorInfo{Code: BusinessNotFound, Message: "Business not found"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record not found"}
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// 2-4. Check constraint violation (23514)
	if strings.Contains(errLower, "check constraint") {
		if strings.Contains(errLower, "rating") {
			return ErrorInfo{Code: ReviewInvalidRating, Message: "Rating must be between 1 and 5"}
		}
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid input"}
	}

	// 3. 네트워크/연결 에러
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again shortly",
		}
	}

	// 4. 기본 내부 서버 오류
	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

// IsUniqueViolation unique 제약 위반 여부 (postgres 23505, sqlite UNIQUE constraint)
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errLower := strings.ToLower(err.Error())
	return strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "unique constraint") ||
		strings.Contains(errLower, "sqlstate 23505")
}

func parseDuplicateKeyError(errLower string, context string) ErrorInfo {
	contextLower := strings.ToLower(context)

	if strings.Contains(errLower, "slug") || strings.Contains(contextLower, "business") {
		return ErrorInfo{Code: BusinessSlugExists, Message: "A business with this name already exists, please try again"}
	}
	if strings.Contains(errLower, "email") || strings.Contains(contextLower, "register") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "User already exists"}
	}

	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Record already exists"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "business"):
		return "Business not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	}
	return "Requested resource not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "register"):
		return "Registration failed"
	case strings.Contains(contextLower, "login"):
		return "Login failed"
	case strings.Contains(contextLower, "create"):
		return "Failed to create business"
	case strings.Contains(contextLower, "submit"):
		return "Failed to submit review"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond 에러를 파싱하여 응답 반환 (controller 헬퍼)
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
