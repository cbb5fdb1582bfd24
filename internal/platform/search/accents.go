package search

import "strings"

// accentPairs lists every accented character folded by StripAccents. The same
// table drives the SQL expression applied to columns so both sides compare equal.
var accentPairs = [][2]string{
	{"ê", "e"}, {"é", "e"}, {"è", "e"}, {"ë", "e"},
	{"Ê", "e"}, {"É", "e"}, {"È", "e"}, {"Ë", "e"},
	{"û", "u"}, {"ú", "u"}, {"ù", "u"}, {"ü", "u"},
	{"Û", "u"}, {"Ú", "u"}, {"Ù", "u"}, {"Ü", "u"},
	{"î", "i"}, {"í", "i"}, {"ì", "i"}, {"ï", "i"},
	{"Î", "i"}, {"Í", "i"}, {"Ì", "i"}, {"Ï", "i"},
	{"â", "a"}, {"ã", "a"}, {"á", "a"}, {"à", "a"}, {"ä", "a"},
	{"Â", "a"}, {"Ã", "a"}, {"Á", "a"}, {"À", "a"}, {"Ä", "a"},
	{"ô", "o"}, {"õ", "o"}, {"ó", "o"}, {"ò", "o"}, {"ö", "o"},
	{"Ô", "o"}, {"Õ", "o"}, {"Ó", "o"}, {"Ò", "o"}, {"Ö", "o"},
}

// accentFrom and accentTo are accentPairs as TRANSLATE arguments.
var accentFrom, accentTo = func() (string, string) {
	var from, to strings.Builder
	for _, p := range accentPairs {
		from.WriteString(p[0])
		to.WriteString(p[1])
	}
	return from.String(), to.String()
}()

var accentReplacer = func() *strings.Replacer {
	oldnew := make([]string, 0, len(accentPairs)*2)
	for _, p := range accentPairs {
		oldnew = append(oldnew, p[0], p[1])
	}
	return strings.NewReplacer(oldnew...)
}()

// StripAccents replaces the accented vowels of s by their plain lower-case letter.
// Other characters are left untouched.
func StripAccents(s string) string {
	return accentReplacer.Replace(s)
}

// Normalize returns s without accents, upper-cased. It is the form both the
// search input and the column values are compared in.
func Normalize(s string) string {
	return strings.ToUpper(StripAccents(s))
}
