package reference

import "strings"

var attributeEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// EscapeAttribute escapes a plain-text value, such as a reference table
// field, for use inside a double-quoted XML attribute.
func EscapeAttribute(value string) string {
	return attributeEscaper.Replace(value)
}

// EscapeText escapes markup-significant characters in text taken from an XML
// paragraph. Entity references already present ("&amp;", "&#8217;") are kept
// as they are; stray "&", "<" and ">" are escaped.
func EscapeText(text string) string {
	return escapeKeepingEntities(text, false)
}

// EscapeTextAttribute escapes text taken from an XML paragraph for use inside
// a double-quoted attribute. Like EscapeText it keeps existing entity
// references, so "Smith &amp; Jones" stays as it is; '"' is also escaped.
func EscapeTextAttribute(text string) string {
	return escapeKeepingEntities(text, true)
}

func escapeKeepingEntities(text string, quotes bool) string {
	if !strings.ContainsAny(text, `&<>"`) {
		return text
	}

	var escaped strings.Builder
	escaped.Grow(len(text) + 8)
	for position := 0; position < len(text); position++ {
		switch text[position] {
		case '<':
			escaped.WriteString("&lt;")
		case '>':
			escaped.WriteString("&gt;")
		case '"':
			if quotes {
				escaped.WriteString("&quot;")
			} else {
				escaped.WriteByte('"')
			}
		case '&':
			if isEntityReference(text[position:]) {
				escaped.WriteByte('&')
			} else {
				escaped.WriteString("&amp;")
			}
		default:
			escaped.WriteByte(text[position])
		}
	}
	return escaped.String()
}

// isEntityReference reports whether text starts with "&name;" or "&#digits;".
func isEntityReference(text string) bool {
	semicolon := strings.IndexByte(text, ';')
	if semicolon < 2 || semicolon > 12 {
		return false
	}
	body := text[1:semicolon]
	if body[0] == '#' {
		body = body[1:]
		if body == "" {
			return false
		}
		if body[0] == 'x' || body[0] == 'X' {
			body = body[1:]
			if body == "" {
				return false
			}
		}
	}
	for _, bodyByte := range []byte(body) {
		isAlnum := bodyByte >= 'a' && bodyByte <= 'z' || bodyByte >= 'A' && bodyByte <= 'Z' ||
			bodyByte >= '0' && bodyByte <= '9'
		if !isAlnum {
			return false
		}
	}
	return true
}
