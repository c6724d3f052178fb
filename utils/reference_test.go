package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReference(t *testing.T) {
	at := time.Date(2026, 1, 14, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	ref := GenerateReference("ESC", at)
	// formatted in UTC
	assert.Regexp(t, `^ESC-20260114-[0-9A-F]{8}$`, ref)
	assert.NotEqual(t, ref, GenerateReference("ESC", at))
}
