// Package flags provides pflag values shared by the xsec commands.
package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	choiceTypeNameConstant      = "choice"
	invalidChoiceTemplate       = "unsupported value %q, expected one of %s"
	choiceListSeparatorConstant = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := buildChoicePlaceholder(defaultChoice, choices)
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ChoiceValue is a pflag.Value restricted to a fixed, case-insensitive set of options.
type ChoiceValue struct {
	target  *string
	choices []string
}

// NewChoiceValue binds target to a flag accepting only the provided choices.
func NewChoiceValue(target *string, choices []string) *ChoiceValue {
	normalizedChoices := make([]string, 0, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(trimmedChoice) > 0 {
			normalizedChoices = append(normalizedChoices, trimmedChoice)
		}
	}
	return &ChoiceValue{target: target, choices: normalizedChoices}
}

// String returns the selected option.
func (value *ChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

// Set validates and stores the option.
func (value *ChoiceValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if choice == normalizedValue {
			*value.target = normalizedValue
			return nil
		}
	}
	return fmt.Errorf(invalidChoiceTemplate, rawValue, strings.Join(value.choices, choiceListSeparatorConstant))
}

// Type names the value kind in help output.
func (value *ChoiceValue) Type() string {
	return choiceTypeNameConstant
}

func buildChoicePlaceholder(defaultChoice string, choices []string) string {
	highlightedChoices := highlightDefaultChoice(defaultChoice, choices)
	return choicePlaceholderPrefix + strings.Join(highlightedChoices, choiceSeparatorLiteral) + choicePlaceholderSuffix
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}

		displayValue := trimmedChoice
		if normalizedChoice == normalizedDefault && len(normalizedChoice) > 0 {
			displayValue = strings.ToUpper(trimmedChoice)
		}

		highlighted = append(highlighted, displayValue)
		seen[normalizedChoice] = struct{}{}
	}

	return highlighted
}
