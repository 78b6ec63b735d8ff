package zipnames

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

var ErrUnresolvableEncoding = errors.New("unresolvable filename encoding")

type DecisionKind int

const (
	// LegacyEncoding means RawName must be decoded with Decision.Codepage.
	LegacyEncoding DecisionKind = iota
	// DirectUnicode means Decision.Text already holds the name.
	DirectUnicode
)

func (k DecisionKind) String() string {
	if k == DirectUnicode {
		return "DirectUnicode"
	}
	return "LegacyEncoding"
}

type Decision struct {
	Kind     DecisionKind
	Codepage Codepage
	Text     string

	// Rule names the rule that produced the decision.
	Rule string

	// Review is set for MS-DOS entries whose creator version lies outside
	// every band the heuristics were checked against.
	Review bool
}

func (d Decision) String() string {
	if d.Kind == DirectUnicode {
		return fmt.Sprintf("DirectUnicode(%q)", d.Text)
	}
	return "LegacyEncoding(" + d.Codepage.String() + ")"
}

// Decode produces the filename for raw according to the decision.
func (d Decision) Decode(raw []byte) (string, error) {
	if d.Kind == DirectUnicode {
		return d.Text, nil
	}
	return d.Codepage.Decode(raw)
}

// VersionBand is an inclusive range of creator versions (major*10+minor).
type VersionBand struct {
	Min, Max uint16
}

func (b VersionBand) Contains(v uint16) bool {
	return b.Min <= v && v <= b.Max
}

func inBands(bands []VersionBand, v uint16) bool {
	for _, b := range bands {
		if b.Contains(v) {
			return true
		}
	}
	return false
}

var (
	// DefaultSplitBands are the MS-DOS creator versions written by PKZip for
	// Windows builds that put ANSI names in local headers and OEM names in
	// the central directory.
	DefaultSplitBands = []VersionBand{{Min: 40, Max: 49}}

	// DefaultReviewedBands are the MS-DOS creator versions whose behaviour
	// has been observed: PKZip 2.x, PKZip for Windows 4.x and PKZip 5.0 up
	// to 6.3.
	DefaultReviewedBands = []VersionBand{{Min: 0, Max: 29}, {Min: 40, Max: 49}, {Min: 50, Max: 63}}
)

// Config carries the caller's side of the resolution. The zero value is
// ready to use.
type Config struct {
	// Override, when set, wins over everything found in the headers.
	Override Codepage

	// Locale picks among legacy code pages. language.Und means no hint.
	Locale language.Tag

	// Default is used when a legacy code page is needed and Locale does
	// not give one.
	Default Codepage

	SplitBands    []VersionBand
	ReviewedBands []VersionBand

	Debug func(...any) (int, error)
}

func (cfg *Config) splitBands() []VersionBand {
	if cfg.SplitBands == nil {
		return DefaultSplitBands
	}
	return cfg.SplitBands
}

func (cfg *Config) reviewedBands() []VersionBand {
	if cfg.ReviewedBands == nil {
		return DefaultReviewedBands
	}
	return cfg.ReviewedBands
}

func (cfg *Config) debug(args ...any) {
	if cfg.Debug != nil {
		cfg.Debug(args...)
	}
}

type rule struct {
	name  string
	apply func(*resolution) (Decision, bool, error)
}

type resolution struct {
	header *EntryHeader
	up     *UnicodePath
	cfg    *Config
}

// Rules are tried in order and the first one that applies decides. Later
// signals in the history of the format come first, and the caller's
// override comes before all of them because headers are sometimes wrong.
var rules = []rule{
	{"override", ruleOverride},
	{"unicode-path", ruleUnicodePath},
	{"utf8-flag", ruleUTF8Flag},
	{"creator-system", ruleCreatorSystem},
}

func ruleOverride(r *resolution) (Decision, bool, error) {
	if r.cfg.Override == NoCodepage {
		return Decision{}, false, nil
	}
	return Decision{Kind: LegacyEncoding, Codepage: r.cfg.Override}, true, nil
}

// The Unicode Path field is checked before bit 11 so that writers setting
// both inconsistently still get the name from the field.
func ruleUnicodePath(r *resolution) (Decision, bool, error) {
	if r.up == nil {
		return Decision{}, false, nil
	}
	return Decision{Kind: DirectUnicode, Text: r.up.Name}, true, nil
}

func ruleUTF8Flag(r *resolution) (Decision, bool, error) {
	if !r.header.UTF8Flag() {
		return Decision{}, false, nil
	}
	return Decision{Kind: LegacyEncoding, Codepage: UTF8}, true, nil
}

func ruleCreatorSystem(r *resolution) (Decision, bool, error) {
	h := r.header
	class := OEM
	review := false
	switch {
	case h.CreatorSystem == CreatorUnix:
		return Decision{Kind: LegacyEncoding, Codepage: UTF8}, true, nil
	case h.CreatorSystem == CreatorNTFS && h.CreatorVersion >= 20:
		class = ANSI
	case h.CreatorSystem == CreatorMSDOS:
		if h.Kind == LocalRecord && inBands(r.cfg.splitBands(), h.CreatorVersion) {
			class = ANSI
		}
		if !inBands(r.cfg.reviewedBands(), h.CreatorVersion) {
			review = true
			r.cfg.debug("zipnames: MS-DOS creator version", h.CreatorVersion,
				"is outside the reviewed bands:", fmt.Sprintf("%q", h.RawName))
		}
	}
	cp, ok := LookupCodepage(r.cfg.Locale, class)
	if !ok {
		cp = r.cfg.Default
	}
	if cp == NoCodepage {
		return Decision{}, false, fmt.Errorf("%w: %s version %d, %s record, no %s code page for locale %q and no default",
			ErrUnresolvableEncoding, h.CreatorSystem, h.CreatorVersion, h.Kind, class, r.cfg.Locale)
	}
	return Decision{Kind: LegacyEncoding, Codepage: cp, Review: review}, true, nil
}

// Resolve decides how the filename of h must be decoded. up is the entry's
// validated Unicode Path Extra Field or nil; h.Kind tells whether h came
// from the local or the central record. cfg may be nil.
func Resolve(h *EntryHeader, up *UnicodePath, cfg *Config) (Decision, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	r := &resolution{header: h, up: up, cfg: cfg}
	for _, rl := range rules {
		d, ok, err := rl.apply(r)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			d.Rule = rl.name
			cfg.debug("zipnames:", h.Kind, fmt.Sprintf("%q", h.RawName), "->", d, "by", rl.name)
			return d, nil
		}
	}
	return Decision{}, fmt.Errorf("%w: no rule applies", ErrUnresolvableEncoding)
}

// DecodeName resolves and decodes the filename of h in one step, reading the
// Unicode Path field from h itself.
func DecodeName(h *EntryHeader, cfg *Config) (string, Decision, error) {
	up, _ := h.UnicodePath()
	d, err := Resolve(h, up, cfg)
	if err != nil {
		return "", d, err
	}
	name, err := d.Decode(h.RawName)
	return name, d, err
}
