package services

import (
	"sort"
	"strings"

	"github.com/upb/unified-workspace/backend/utils"
)

// validate runs struct validation and maps failures to domain errors.
// A missing required field yields onRequired; other failures are reported
// by field message.
func validate(input interface{}, onRequired *DomainError) error {
	err := utils.ValidateStruct(input)
	if err == nil {
		return nil
	}
	fields := utils.GetValidationFields(err)
	if fields == nil {
		return WrapInternal("validation failed", err)
	}

	messages := make([]string, 0, len(fields))
	for _, msg := range fields {
		if strings.HasSuffix(msg, " is required") {
			return onRequired
		}
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return NewDomainError(ErrorTypeValidation, messages[0], err)
}
