package zipnames

import (
	"strconv"

	"golang.org/x/text/language"
)

// Codepage is a Windows code page number.
type Codepage int

const (
	NoCodepage Codepage = 0

	// SystemANSI is the ANSI code page of the running process. It is only
	// meaningful as a fallback default; tables never return it.
	SystemANSI Codepage = -1

	CP437  Codepage = 437
	CP850  Codepage = 850
	CP852  Codepage = 852
	CP855  Codepage = 855
	CP858  Codepage = 858
	CP860  Codepage = 860
	CP862  Codepage = 862
	CP863  Codepage = 863
	CP865  Codepage = 865
	CP866  Codepage = 866
	CP874  Codepage = 874
	CP932  Codepage = 932
	CP936  Codepage = 936
	CP949  Codepage = 949
	CP950  Codepage = 950
	CP1250 Codepage = 1250
	CP1251 Codepage = 1251
	CP1252 Codepage = 1252
	CP1253 Codepage = 1253
	CP1254 Codepage = 1254
	CP1255 Codepage = 1255
	CP1256 Codepage = 1256
	CP1257 Codepage = 1257
	CP1258 Codepage = 1258
	UTF8   Codepage = 65001
)

func (cp Codepage) String() string {
	switch cp {
	case NoCodepage:
		return "none"
	case SystemANSI:
		return "ACP"
	case UTF8:
		return "UTF-8"
	}
	return "CP" + strconv.Itoa(int(cp))
}

// Class selects between the two legacy code pages Windows assigns to a
// locale.
type Class int

const (
	OEM Class = iota
	ANSI
)

func (c Class) String() string {
	if c == ANSI {
		return "ANSI"
	}
	return "OEM"
}

type codepagePair struct {
	oem  Codepage
	ansi Codepage
}

// Keys are a base language, optionally followed by a script or a region.
// Locales whose OEM page has no decoder (737, 775, 857, 720, ...) only have
// an ANSI entry.
var legacyCodepages = map[string]codepagePair{
	"en":    {CP850, CP1252},
	"en-US": {CP437, CP1252},
	"de":    {CP850, CP1252},
	"fr":    {CP850, CP1252},
	"es":    {CP850, CP1252},
	"it":    {CP850, CP1252},
	"pt":    {CP850, CP1252},
	"nl":    {CP850, CP1252},
	"da":    {CP850, CP1252},
	"sv":    {CP850, CP1252},
	"fi":    {CP850, CP1252},
	"nb":    {CP850, CP1252},
	"nn":    {CP850, CP1252},
	"no":    {CP850, CP1252},
	"is":    {CP850, CP1252},
	"ca":    {CP850, CP1252},
	"eu":    {CP850, CP1252},
	"gl":    {CP850, CP1252},
	"af":    {CP850, CP1252},
	"id":    {CP850, CP1252},
	"ms":    {CP850, CP1252},

	"ru": {CP866, CP1251},
	"uk": {CP866, CP1251},
	"be": {CP866, CP1251},
	"bg": {CP866, CP1251},
	"mk": {CP866, CP1251},

	"pl": {CP852, CP1250},
	"cs": {CP852, CP1250},
	"sk": {CP852, CP1250},
	"hu": {CP852, CP1250},
	"hr": {CP852, CP1250},
	"sl": {CP852, CP1250},
	"ro": {CP852, CP1250},
	"sq": {CP852, CP1250},

	"he": {CP862, CP1255},
	"th": {CP874, CP874},

	"ja":      {CP932, CP932},
	"zh":      {CP936, CP936},
	"zh-Hant": {CP950, CP950},
	"ko":      {CP949, CP949},

	"el": {NoCodepage, CP1253},
	"tr": {NoCodepage, CP1254},
	"ar": {NoCodepage, CP1256},
	"lt": {NoCodepage, CP1257},
	"lv": {NoCodepage, CP1257},
	"et": {NoCodepage, CP1257},
	"vi": {NoCodepage, CP1258},
}

// LookupCodepage returns the legacy code page of the given class for a
// locale. It reports false for the root locale and for locales it does not
// know; the caller picks the fallback.
func LookupCodepage(locale language.Tag, class Class) (Codepage, bool) {
	pair, ok := lookupPair(locale)
	if !ok {
		return NoCodepage, false
	}
	cp := pair.oem
	if class == ANSI {
		cp = pair.ansi
	}
	return cp, cp != NoCodepage
}

func lookupPair(locale language.Tag) (codepagePair, bool) {
	if locale.IsRoot() {
		return codepagePair{}, false
	}
	base, conf := locale.Base()
	if conf == language.No {
		return codepagePair{}, false
	}
	keys := make([]string, 0, 3)
	if script, conf := locale.Script(); conf != language.No {
		keys = append(keys, base.String()+"-"+script.String())
	}
	if region, conf := locale.Region(); conf != language.No {
		keys = append(keys, base.String()+"-"+region.String())
	}
	keys = append(keys, base.String())
	for _, key := range keys {
		if pair, ok := legacyCodepages[key]; ok {
			return pair, true
		}
	}
	return codepagePair{}, false
}
