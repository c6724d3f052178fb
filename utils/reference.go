package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReference returns a human-readable event reference such as ESC-20260114-1a2b3c4d
func GenerateReference(prefix string, at time.Time) string {
	datePrefix := at.UTC().Format("20060102")
	uniqueID := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, datePrefix, uniqueID)
}
