package zipnames

import (
	"strings"

	"golang.org/x/text/language"
)

// LocaleFromEnv derives a locale hint the way unzip does, from the first
// non-empty of LC_ALL, LC_CTYPE and LANG.
func LocaleFromEnv(getenv func(string) string) language.Tag {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if value := getenv(name); value != "" {
			return ParseLocale(value)
		}
	}
	return language.Und
}

// ParseLocale accepts POSIX locale names ("ru_RU.UTF-8", "sr_RS@latin") as
// well as BCP 47 tags. Unparsable names and C/POSIX yield language.Und.
func ParseLocale(s string) language.Tag {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "", "C", "POSIX":
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}
