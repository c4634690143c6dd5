// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masks sensitive data in production
// ============================================================================
// Logging helpers that automatically mask personal information (emails,
// amounts, identifiers) when running in a production environment.
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

var (
	// IsProduction: sensitive data is masked when true
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	amountWithCurrencyRegex = regexp.MustCompile(`\b\d+([.,]\d{1,2})?\s*(€|EUR|CHF|GBP|USD|£|\$)\b`)

	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// MaskString masks sensitive data inside a string
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := input
	result = emailRegex.ReplaceAllString(result, "***@***.***")
	result = amountWithCurrencyRegex.ReplaceAllString(result, "***€")
	result = uuidRegex.ReplaceAllStringFunc(result, func(uuid string) string {
		if len(uuid) > 8 {
			return uuid[:8] + "..."
		}
		return "***"
	})

	return result
}

// MaskAmount masks a monetary amount
func MaskAmount(amount float64) string {
	if IsProduction {
		return "***"
	}
	return fmt.Sprintf("%.2f", amount)
}

// MaskID keeps only the first 8 characters of an identifier
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// MaskEmail masks an email address
func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// SafeLog logs a message with sensitive data masked
func SafeLog(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Print(MaskString(message))
}

// SafeDebug logs a debug message (only with LOG_LEVEL=DEBUG)
func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[DEBUG] %s", MaskString(message))
}

// SafeInfo logs an informational message
func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[INFO] %s", MaskString(message))
}

// SafeWarn logs a warning
func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[WARN] %s", MaskString(message))
}

// SafeError logs an error
func SafeError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[ERROR] %s", MaskString(message))
}

// LogListAction logs an action on a shopping list without leaking identities
func LogListAction(action string, listID string, userID string) {
	if IsProduction {
		log.Printf("[List] %s - List: %s User: %s", action, MaskID(listID), MaskID(userID))
	} else {
		log.Printf("[List] %s - List: %s User: %s", action, listID, userID)
	}
}

// LogAuthAction logs an authentication event
func LogAuthAction(action string, email string, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}

	if IsProduction {
		log.Printf("[Auth] %s - Email: %s Status: %s", action, MaskEmail(email), status)
	} else {
		log.Printf("[Auth] %s - Email: %s Status: %s", action, email, status)
	}
}

// LogAPIRequest logs an API request without sensitive path segments
func LogAPIRequest(method string, path string, userID string, statusCode int, duration string) {
	if IsProduction {
		maskedPath := uuidRegex.ReplaceAllStringFunc(path, func(uuid string) string {
			if len(uuid) > 8 {
				return uuid[:8] + "..."
			}
			return "***"
		})
		log.Printf("[API] %s %s - User: %s Status: %d Duration: %s",
			method, maskedPath, MaskID(userID), statusCode, duration)
	} else {
		log.Printf("[API] %s %s - User: %s Status: %d Duration: %s",
			method, path, userID, statusCode, duration)
	}
}

// LogWebSocket logs a WebSocket event
func LogWebSocket(action string, listID string, userID string) {
	if IsProduction {
		log.Printf("[WS] %s - List: %s User: %s", action, MaskID(listID), MaskID(userID))
	} else {
		log.Printf("[WS] %s - List: %s User: %s", action, listID, userID)
	}
}

// GetEnvMode returns the current environment mode
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup logs application startup information
func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	log.Printf("   Log Level: %d", LogLevel)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: Sensitive data will be masked in logs")
	}
}
