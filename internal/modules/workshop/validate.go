package workshop

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/workshophq/workshop/internal/modules/fieldset"
)

var validate = validator.New()

// knownTokens are the rule tokens the runner evaluates. Anything else coming
// out of a fieldset is ignored rather than crashing the request.
var knownTokens = map[string]bool{
	"required": true, "email": true, "url": true,
	"alpha": true, "alphanum": true, "numeric": true,
	"min": true, "max": true, "len": true,
}

// buildRules compiles the fieldset's pipe-delimited rule strings and forces
// the slugify-source field to be required, whatever its original rule says.
func buildRules(fs *fieldset.Fieldset, slugifyField string) map[string]string {
	rules := fs.Rules()

	tokens := splitTokens(rules[slugifyField])
	if !containsToken(tokens, "required") {
		tokens = append(tokens, "required")
	}
	rules[slugifyField] = strings.Join(tokens, "|")

	return rules
}

// runRules validates the submitted content fields against the compiled
// rules, labelling messages with the fieldset's display names. A nil result
// means the submission passed.
func runRules(fields map[string]interface{}, rules map[string]string, labels map[string]string) Errors {
	errs := Errors{}

	for field, rule := range rules {
		tokens := splitTokens(rule)
		if len(tokens) == 0 {
			continue
		}

		label := labels[field]
		if label == "" {
			label = field
		}
		value := fields[field]

		for _, token := range tokens {
			name := tokenName(token)
			if !knownTokens[name] {
				continue
			}

			if name == "required" {
				if isEmptyValue(value) {
					errs[field] = ruleMessage(label, token)
				}
				continue
			}

			// Non-required rules only apply to present string values.
			s, ok := value.(string)
			if !ok || s == "" {
				continue
			}
			if err := validate.Var(s, token); err != nil {
				errs[field] = ruleMessage(label, token)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func tokenName(token string) string {
	if i := strings.IndexByte(token, '='); i >= 0 {
		return token[:i]
	}
	return token
}

func tokenArg(token string) string {
	if i := strings.IndexByte(token, '='); i >= 0 {
		return token[i+1:]
	}
	return ""
}

func ruleMessage(label, token string) string {
	switch tokenName(token) {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, tokenArg(token))
	case "max":
		return fmt.Sprintf("The %s field may not be greater than %s characters.", label, tokenArg(token))
	case "len":
		return fmt.Sprintf("The %s field must be exactly %s characters.", label, tokenArg(token))
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", label)
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []*multipart.FileHeader:
		return len(t) == 0
	case *multipart.FileHeader:
		return t == nil
	default:
		return false
	}
}

func splitTokens(rule string) []string {
	if strings.TrimSpace(rule) == "" {
		return nil
	}
	parts := strings.Split(rule, "|")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
