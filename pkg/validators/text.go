package validators

import "strings"

var textSanitizer = strings.NewReplacer("<", "", ">", "")

// SanitizeText trims the input and strips characters that could break
// rendering downstream
func SanitizeText(t string) string {
	return textSanitizer.Replace(strings.TrimSpace(t))
}

// SanitizeFilename keeps only the final path element of an uploaded
// file name and strips characters that are unsafe in keys and HTML
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = textSanitizer.Replace(strings.TrimSpace(name))

	// Hidden or emptied out names get a neutral fallback
	if name == "" || strings.HasPrefix(name, ".") {
		return "upload"
	}

	return name
}
