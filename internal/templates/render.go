package templates

import (
	"regexp"
	"strings"

	"mail-autoreply/internal/models"
)

// sigilPattern matches a $ placeholder up to the end of its identifier, so
// $name_kana is one unknown placeholder, not $name plus _kana.
var sigilPattern = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// Render substitutes placeholders in a template body. Three passes, in order:
// literal \n sequences become newlines, then the $ sigils ($name, $title,
// $age, $client_name), then {ラベル} references resolved from the applicant
// row's raw columns. Unknown placeholders are left untouched. The sigil pass
// is a single scan, so an applicant name containing a sigil cannot expand
// twice.
func Render(template string, ctx models.RenderContext) string {
	out := strings.ReplaceAll(template, `\n`, "\n")

	out = sigilPattern.ReplaceAllStringFunc(out, func(match string) string {
		switch match[1:] {
		case "name":
			return ctx.Name
		case "title":
			return ctx.Title
		case "age":
			return ctx.Age
		case "client_name":
			return ctx.ClientName
		}
		return match
	})

	for label, value := range ctx.Columns {
		if label == "" {
			continue
		}
		out = strings.ReplaceAll(out, "{"+label+"}", value)
	}

	return out
}

// Subject renders the subject line: the client's subject template when one is
// set, otherwise the default ご応募ありがとうございます【タイトル】, without
// the brackets when the row has no title.
func Subject(subjectTemplate string, ctx models.RenderContext) string {
	if strings.TrimSpace(subjectTemplate) != "" {
		return Render(subjectTemplate, ctx)
	}
	if ctx.Title == "" {
		return "ご応募ありがとうございます"
	}
	return "ご応募ありがとうございます【" + ctx.Title + "】"
}
