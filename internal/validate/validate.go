package validate

import (
	"encoding/base64"
	"errors"
	"strings"
)

// MaxImageBytes bounds the decoded size of an uploaded photo.
const MaxImageBytes = 10 * 1024 * 1024

// MaxPromptLen bounds the haircut description length.
const MaxPromptLen = 500

var (
	ErrPromptEmpty    = errors.New("prompt is empty")
	ErrPromptTooLong  = errors.New("prompt is too long")
	ErrBlockedContent = errors.New("prompt contains blocked content")
	ErrInvalidFormat  = errors.New("image data is not valid base64")
	ErrImageTooLarge  = errors.New("image exceeds maximum size")
)

// Substring match, case-insensitive. Intentionally blunt: the prompt is
// spliced verbatim into the upstream instruction, so anything that smells
// like markup or a link is rejected outright.
var blockedSubstrings = []string{
	"script",
	"javascript",
	"html",
	"css",
	"<",
	">",
	"http",
	"www",
}

// Image checks that base64Data is valid standard base64 and that the decoded
// payload fits within MaxImageBytes. Size is estimated as len*3/4 rather than
// decoded exactly; the estimate can be off by up to two bytes for unpadded
// input, which is an accepted policy, not a bug to fix.
func Image(base64Data string) error {
	if _, err := base64.StdEncoding.DecodeString(base64Data); err != nil {
		return ErrInvalidFormat
	}
	if len(base64Data)*3/4 > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// Prompt checks the haircut description: non-blank, within length, and free
// of blocklisted substrings. Checks run in that order and the first failure
// wins.
func Prompt(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrPromptEmpty
	}
	if len(text) > MaxPromptLen {
		return ErrPromptTooLong
	}
	lowered := strings.ToLower(text)
	for _, blocked := range blockedSubstrings {
		if strings.Contains(lowered, blocked) {
			return ErrBlockedContent
		}
	}
	return nil
}
