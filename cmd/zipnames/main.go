package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-tty"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hymkor/zipnames"
)

var errSomeNamesFailed = errors.New("some names could not be decoded")

type options struct {
	encoding  string
	locale    string
	defaultCP string
	local     bool
	verbose   bool
	ask       bool
	debug     bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("zipnames", pflag.ContinueOnError)
	fs.StringVarP(&opts.encoding, "encoding", "I", "", "decode every name with this codepage (CP866, 1251, UTF-8, windows-1251, ...)")
	fs.StringVar(&opts.locale, "locale", "", "locale used to pick OEM/ANSI codepages (default: LC_ALL, LC_CTYPE or LANG)")
	fs.StringVar(&opts.defaultCP, "default", "", "codepage used when the locale gives none (ACP for the system ANSI codepage)")
	fs.BoolVar(&opts.local, "local", false, "print names from local headers instead of the central directory")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "print the deciding rule and codepage after each name")
	fs.BoolVar(&opts.ask, "ask", false, "ask for a codepage on the terminal when none can be chosen")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug output")
	return fs
}

// askFunc returns the codepage to use for a name nothing else could decode.
type askFunc func(rawName []byte) (zipnames.Codepage, error)

func askByTTY(rawName []byte) (zipnames.Codepage, error) {
	tt, err := tty.Open()
	if err != nil {
		return zipnames.NoCodepage, err
	}
	defer tt.Close()
	for i := 0; ; i++ {
		fmt.Fprintf(tt.Output(), "codepage for %q: ", rawName)
		line, err := tt.ReadString()
		if err != nil {
			return zipnames.NoCodepage, err
		}
		cp, err := zipnames.ParseCodepage(line)
		if err == nil || i >= 2 {
			return cp, err
		}
		fmt.Fprintln(tt.Output(), err.Error())
	}
}

func configFromOptions(opts *options, getenv func(string) string, stderr io.Writer) (*zipnames.Config, error) {
	cfg := &zipnames.Config{}
	if opts.encoding != "" {
		cp, err := zipnames.ParseCodepage(opts.encoding)
		if err != nil {
			return nil, errors.Wrap(err, "--encoding")
		}
		cfg.Override = cp
	}
	if opts.defaultCP != "" {
		cp, err := zipnames.ParseCodepage(opts.defaultCP)
		if err != nil {
			return nil, errors.Wrap(err, "--default")
		}
		cfg.Default = cp
	}
	if opts.locale != "" {
		cfg.Locale = zipnames.ParseLocale(opts.locale)
	} else {
		cfg.Locale = zipnames.LocaleFromEnv(getenv)
	}
	if opts.debug {
		cfg.Debug = func(args ...any) (int, error) {
			return fmt.Fprintln(stderr, args...)
		}
	}
	return cfg, nil
}

type lister struct {
	cfg    *zipnames.Config
	opts   *options
	ask    askFunc
	stdout io.Writer
	stderr io.Writer
}

func (l *lister) retry(res *zipnames.Resolved) *zipnames.Resolved {
	if l.ask == nil || !errors.Is(res.Err, zipnames.ErrUnresolvableEncoding) {
		return res
	}
	// List resolved every entry before the first answer, so entries after
	// it reuse the answer instead of asking again.
	if l.cfg.Default == zipnames.NoCodepage {
		cp, err := l.ask(res.Header.RawName)
		if err != nil {
			fmt.Fprintf(l.stderr, "%q: %s\n", res.Header.RawName, err.Error())
			return res
		}
		l.cfg.Default = cp
	}
	name, d, err := zipnames.DecodeName(res.Header, l.cfg)
	return &zipnames.Resolved{Header: res.Header, Decision: d, Name: name, Err: err}
}

func (l *lister) listFromReader(r io.Reader) error {
	entries, err := zipnames.List(r, l.cfg)
	failed := false
	for _, e := range entries {
		res := e.Preferred()
		if l.opts.local && e.Local != nil {
			res = e.Local
		}
		res = l.retry(res)
		if res.Err != nil {
			fmt.Fprintf(l.stderr, "%q: %s\n", res.Header.RawName, res.Err.Error())
			failed = true
			continue
		}
		if l.opts.verbose {
			review := ""
			if res.Decision.Review {
				review = "\treview"
			}
			fmt.Fprintf(l.stdout, "%s\t%s\t%s%s\n", res.Name, res.Decision.Rule, res.Decision, review)
		} else {
			fmt.Fprintln(l.stdout, res.Name)
		}
	}
	if err != nil {
		return err
	}
	if failed {
		return errSomeNamesFailed
	}
	return nil
}

// run lists the archives named in args, or stdin when there are none. ask is
// consulted under --ask only and may be nil when no terminal is available.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string, ask askFunc) error {
	var opts options
	fs := newFlagSet(&opts)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := configFromOptions(&opts, getenv, stderr)
	if err != nil {
		return err
	}
	l := &lister{cfg: cfg, opts: &opts, stdout: stdout, stderr: stderr}
	if opts.ask {
		l.ask = ask
	}

	if fs.NArg() <= 0 {
		return l.listFromReader(stdin)
	}
	for _, fname := range fs.Args() {
		fd, err := os.Open(fname)
		if err != nil {
			if !os.IsNotExist(err) {
				return errors.WithStack(err)
			}
			if strings.EqualFold(filepath.Ext(fname), ".zip") {
				return errors.WithStack(err)
			}
			fd, err = os.Open(fname + ".zip")
			if err != nil {
				return errors.WithStack(err)
			}
		}
		err = l.listFromReader(fd)
		fd.Close()
		if err != nil {
			return errors.Wrapf(err, "%s", fname)
		}
	}
	return nil
}

func main() {
	var ask askFunc
	if term.IsTerminal(int(os.Stderr.Fd())) {
		ask = askByTTY
	}
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv, ask); err != nil {
		if err != pflag.ErrHelp {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}
