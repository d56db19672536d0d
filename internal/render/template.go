package render

import (
	"regexp"
	"strconv"
	"time"
)

var templateVarRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateContext contains values for template variable substitution.
type TemplateContext struct {
	Page  int
	Pages int
	Date  time.Time
}

// HasTemplateVariables reports whether text contains any {{Name}} variable.
func HasTemplateVariables(text string) bool {
	return templateVarRegex.MatchString(text)
}

// ExpandTemplateVariables replaces template variables in text with values from context.
//
// Supported variables:
//   - {{Page}} - Current page number
//   - {{Pages}} - Total number of pages
//   - {{Date}} - Date of the run (YYYY-MM-DD format)
func ExpandTemplateVariables(text string, ctx TemplateContext) string {
	return templateVarRegex.ReplaceAllStringFunc(text, func(match string) string {
		varName := match[2 : len(match)-2] // Remove {{ and }}
		switch varName {
		case "Page":
			return strconv.Itoa(ctx.Page)
		case "Pages":
			return strconv.Itoa(ctx.Pages)
		case "Date":
			if ctx.Date.IsZero() {
				return time.Now().Format("2006-01-02")
			}
			return ctx.Date.Format("2006-01-02")
		default:
			return match // Keep unknown variables as-is
		}
	})
}
