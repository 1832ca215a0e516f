package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 대시보드/리뷰 페이지에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // 로그아웃된 토큰
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // 이메일 중복
	AuthPasswordTooShort   = "AUTH_PASSWORD_TOO_SHORT"  // 비밀번호 8자 미만

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // 접근 권한 없음
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // 소유자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationRequired      = "VALIDATION_REQUIRED"       // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 비즈니스 (BUSINESS_) ====================
	BusinessNotFound      = "BUSINESS_NOT_FOUND"       // 비즈니스 없음
	BusinessSlugExists    = "BUSINESS_SLUG_EXISTS"     // slug 동시 생성 충돌
	BusinessLimitReached  = "BUSINESS_LIMIT_REACHED"   // 무료 플랜 1개 제한
	BusinessPlaceNotFound = "BUSINESS_PLACE_NOT_FOUND" // 지도 링크로 장소를 찾지 못함

	// ==================== 리뷰 (REVIEW_) ====================
	ReviewInvalidRating    = "REVIEW_INVALID_RATING"    // 잘못된 평점
	ReviewCommentsRequired = "REVIEW_COMMENTS_REQUIRED" // 코멘트 필수
	ReviewRedirectRequired = "REVIEW_REDIRECT_REQUIRED" // 고평점은 외부 리뷰로 이동
	ReviewURLMissing       = "REVIEW_URL_MISSING"       // 외부 리뷰 URL 없음
	ReviewInvalidState     = "REVIEW_INVALID_STATE"     // 현재 단계에서 불가능한 동작

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 설정 오류
)
