package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apex/log"
)

// Component base structure for a Component
type Component struct {
	LogTags log.Fields
}

// nicknameBody matches the allowed display name characters
var nicknameBody = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// ValidateNickname verifies a viewer display name is safe to register.
//
// The name must be 2 to 20 characters after trimming, and limited to
// letters, digits, space, underscore, and hyphen.
func ValidateNickname(nickname string) error {
	trimmed := strings.TrimSpace(nickname)
	if len(trimmed) < 2 || len(trimmed) > 20 {
		return fmt.Errorf("nickname '%s' length must be within [2, 20]", nickname)
	}
	if !nicknameBody.MatchString(trimmed) {
		return fmt.Errorf("nickname '%s' contains unsupported characters", nickname)
	}
	return nil
}
