package extract

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Keyword lists for name-heuristic type inference. Order matters: uuid is
// checked before number because "uuid" itself contains "id", and datetime
// before date because "datetime" contains "date".
var (
	booleanPrefixes = []string{"is_", "has_", "can_", "should_", "will_"}
	booleanTokens   = []string{"enabled", "disabled", "active", "inactive"}
	uuidTokens      = []string{"uuid", "guid"}
	emailTokens     = []string{"email"}
	urlTokens       = []string{"url", "link"}
	jsonTokens      = []string{"json", "payload"}
	datetimeTokens  = []string{"datetime", "timestamp"}
	dateTokens      = []string{"date", "time", "created", "updated", "birth", "start", "end", "begin", "finish"}
	numberTokens    = []string{"id", "count", "limit", "offset", "age", "num", "amount", "total", "quantity", "price"}
	falsyName       = []string{"delete", "exclude", "hide", "disabled", "inactive"}
	requiredTokens  = []string{"id", "required", "mandatory"}
)

// InferType guesses a variable's type from its name alone.
func InferType(name string) Type {
	n := strings.ToLower(name)

	for _, p := range booleanPrefixes {
		if strings.HasPrefix(n, p) {
			return TypeBoolean
		}
	}
	if containsAny(n, booleanTokens) {
		return TypeBoolean
	}
	if containsAny(n, uuidTokens) {
		return TypeUUID
	}
	if containsAny(n, emailTokens) {
		return TypeEmail
	}
	if containsAny(n, urlTokens) {
		return TypeURL
	}
	if containsAny(n, jsonTokens) {
		return TypeJSON
	}
	if containsAny(n, datetimeTokens) {
		return TypeDatetime
	}
	if containsAny(n, dateTokens) {
		return TypeDate
	}
	if containsAny(n, numberTokens) {
		return TypeNumber
	}
	return TypeString
}

// DefaultFor synthesizes a demo value for a variable of the given type.
// Boolean names that read as destructive or excluding default to false so
// demo SQL stays on the safe branch.
func DefaultFor(t Type, name string) any {
	switch t {
	case TypeNumber:
		return 42
	case TypeBoolean:
		return !containsAny(strings.ToLower(name), falsyName)
	case TypeDate:
		return time.Now().Format("2006-01-02")
	case TypeDatetime:
		return time.Now().Format("2006-01-02 15:04:05")
	case TypeUUID:
		return uuid.New().String()
	case TypeEmail:
		return gofakeit.Email()
	case TypeURL:
		return gofakeit.URL()
	case TypeJSON:
		return `{"key": "value"}`
	default:
		return "demo_value"
	}
}

// InferRequired guesses whether a variable is mandatory from its name.
func InferRequired(name string) bool {
	return containsAny(strings.ToLower(name), requiredTokens)
}

func containsAny(name string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}
