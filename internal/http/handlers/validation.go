package handlers

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxSkillIDRunes = 256

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags on gin's validator.
// It must succeed before the handlers serve requests. Safe to call more than
// once; later calls return the first result.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerValidators(binding.Validator)
	})
	return registerErr
}

func registerValidators(sv binding.StructValidator) error {
	if sv == nil {
		return fmt.Errorf("handlers: no binding validator installed")
	}
	v, ok := sv.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("handlers: binding validator engine is %T, want *validator.Validate", sv.Engine())
	}
	if err := v.RegisterValidation("skillid", validSkillID); err != nil {
		return fmt.Errorf("handlers: register skillid: %w", err)
	}
	return nil
}

// validSkillID accepts graph node ids: non-blank, bounded, no control characters.
func validSkillID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > maxSkillIDRunes {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// splitIDs parses a comma-separated query value, dropping blanks.
func splitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
