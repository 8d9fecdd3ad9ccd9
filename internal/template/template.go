// Package template implements the channel output-formatting mini-language:
// a pure transform from a template string and one or more entries to a
// rendered string. It has no side effects and performs no I/O; the only
// external inputs are the template text and the entry/entries passed in.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tv-cli/tv/internal/util"
)

// Mode controls how a template applies to a multi-entry selection.
type Mode string

const (
	ModeSingle      Mode = "single"
	ModeConcatenate Mode = "concatenate"
	ModeOneToOne    Mode = "one_to_one"
)

// Error describes a malformed template, with enough location information
// for the UI to point at the offending fragment.
type Error struct {
	Template string
	Pos      int
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template error at %d in %q: %s", e.Pos, e.Template, e.Reason)
}

// Options configures one render call.
type Options struct {
	Mode          Mode
	Separator     string
	ShellEscaping bool
	// DefaultSplitSep is used for the positional shorthand {N} and for
	// split:DEFAULT when the operation omits a separator; it defaults to
	// ":" unless the channel's preview delimiter overrides it.
	DefaultSplitSep string
}

// Entry is the minimal view of an Entry the template engine needs. It is
// defined locally (rather than importing internal/entry) so this package
// stays a leaf with no dependency on the candidate pool.
type Entry interface {
	Raw() string
}

// Render applies template to a single entry, equivalent to calling
// RenderAll with a one-element slice and Mode "single".
func Render(tmpl string, e Entry) (string, error) {
	return RenderAll(tmpl, []Entry{e}, Options{Mode: ModeSingle})
}

// RenderAll applies template to a (possibly multi-entry) selection
// according to opts.Mode, then substitutes the result into every `{...}`
// placeholder found in the template, honoring opts.ShellEscaping.
//
// ModeOneToOne renders the whole template once per entry and joins the
// per-entry renders with opts.Separator (default "\n") — the Action
// Dispatcher uses this to build one command invocation per selected
// entry. ModeSingle and ModeConcatenate instead render the template a
// single time, against entries[0] or against the joined raw text
// respectively.
func RenderAll(tmpl string, entries []Entry, opts Options) (string, error) {
	if opts.DefaultSplitSep == "" {
		opts.DefaultSplitSep = ":"
	}

	if opts.Mode == ModeOneToOne {
		sep := opts.Separator
		if sep == "" {
			sep = "\n"
		}
		parts := make([]string, len(entries))
		for i, e := range entries {
			r, err := renderOne(tmpl, e, opts)
			if err != nil {
				return "", err
			}
			parts[i] = r
		}
		return strings.Join(parts, sep), nil
	}

	var raw string
	switch opts.Mode {
	case ModeConcatenate:
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = e.Raw()
		}
		sep := opts.Separator
		if sep == "" {
			sep = "\n"
		}
		raw = strings.Join(parts, sep)
	default: // ModeSingle
		if len(entries) > 0 {
			raw = entries[0].Raw()
		}
	}
	return renderOne(tmpl, rawEntry(raw), opts)
}

type rawEntry string

func (r rawEntry) Raw() string { return string(r) }

// renderOne substitutes every `{...}` placeholder in tmpl, each operating
// on e's raw text.
func renderOne(tmpl string, e Entry, opts Options) (string, error) {
	placeholders, err := parsePlaceholders(tmpl)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	last := 0
	for _, ph := range placeholders {
		out.WriteString(tmpl[last:ph.start])
		val, err := evalChain(ph.body, e.Raw(), opts)
		if err != nil {
			return "", err
		}
		if opts.ShellEscaping {
			val = shellEscape(val)
		}
		out.WriteString(val)
		last = ph.end
	}
	out.WriteString(tmpl[last:])
	return out.String(), nil
}

type placeholder struct {
	start, end int // byte offsets of the full `{...}` in the template
	body       string
}

// parsePlaceholders scans tmpl for balanced `{...}` groups. Nested braces
// are not supported (map:{...} is parsed as a single operation argument,
// handled specially in opMap rather than by brace nesting here).
func parsePlaceholders(tmpl string) ([]placeholder, error) {
	var out []placeholder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '{' {
			i++
			continue
		}
		start := i
		depth := 1
		j := i + 1
		for j < len(tmpl) && depth > 0 {
			switch tmpl[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		if depth != 0 {
			return nil, &Error{Template: tmpl, Pos: start, Reason: "unbalanced braces"}
		}
		out = append(out, placeholder{start: start, end: j, body: tmpl[start+1 : j-1]})
		i = j
	}
	return out, nil
}

// value is the intermediate representation threaded through an operation
// chain: either a scalar string or a list of strings (produced by split,
// consumed/produced by list-aware operations like join/filter/sort/unique/map).
type value struct {
	scalar string
	list   []string
	isList bool
}

func scalarValue(s string) value { return value{scalar: s} }
func listValue(l []string) value { return value{list: l, isList: true} }

func (v value) String() string {
	if v.isList {
		return strings.Join(v.list, "")
	}
	return v.scalar
}

// evalChain parses and runs a `|`-chained operation list against raw,
// honoring the `{N}` positional shorthand as sugar for split:DEFAULT:N.
func evalChain(body, raw string, opts Options) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return raw, nil
	}

	if n, err := strconv.Atoi(body); err == nil {
		return evalChain(fmt.Sprintf("split:%s:%d", opts.DefaultSplitSep, n), raw, opts)
	}

	ops, err := splitOps(body)
	if err != nil {
		return "", &Error{Template: body, Reason: err.Error()}
	}

	v := scalarValue(raw)
	for _, op := range ops {
		v, err = applyOp(op, v, opts)
		if err != nil {
			return "", &Error{Template: body, Reason: err.Error()}
		}
	}
	return v.String(), nil
}

// splitOps splits an operation chain on top-level `|`, respecting the
// map:{...} operation's own nested `|` separators inside its braces.
func splitOps(body string) ([]string, error) {
	var ops []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced braces in %q", body)
			}
		case '|':
			if depth == 0 {
				ops = append(ops, body[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced braces in %q", body)
	}
	ops = append(ops, body[start:])
	return ops, nil
}

func applyOp(op string, v value, opts Options) (value, error) {
	name, args := splitOp(op)
	switch name {
	case "split":
		return opSplit(args, v, opts)
	case "join":
		return opJoin(args, v)
	case "trim":
		return mapScalar(v, strings.TrimSpace), nil
	case "upper":
		return mapScalar(v, strings.ToUpper), nil
	case "lower":
		return mapScalar(v, strings.ToLower), nil
	case "append":
		suffix := strings.Join(args, ":")
		return mapScalar(v, func(s string) string { return s + suffix }), nil
	case "prepend":
		prefix := strings.Join(args, ":")
		return mapScalar(v, func(s string) string { return prefix + s }), nil
	case "replace":
		return opReplace(args, v)
	case "regex_extract":
		return opRegexExtract(args, v)
	case "filter":
		return opFilter(args, v)
	case "sort":
		return opSort(args, v)
	case "unique":
		return opUnique(v), nil
	case "pad":
		return opPad(args, v)
	case "strip_ansi":
		return mapScalar(v, util.StripANSISequence), nil
	case "map":
		return opMap(args, v, opts)
	default:
		return value{}, fmt.Errorf("unknown operation %q", name)
	}
}

// splitOp splits "name:arg1:arg2" into ("name", ["arg1","arg2"]).
func splitOp(op string) (string, []string) {
	parts := strings.Split(op, ":")
	return parts[0], parts[1:]
}

func mapScalar(v value, f func(string) string) value {
	if v.isList {
		out := make([]string, len(v.list))
		for i, s := range v.list {
			out[i] = f(s)
		}
		return listValue(out)
	}
	return scalarValue(f(v.scalar))
}

func opSplit(args []string, v value, opts Options) (value, error) {
	sep := opts.DefaultSplitSep
	rangeSpec := ""
	if len(args) > 2 && args[0] == "" && args[1] == "" {
		// "split:::RANGE" names ':' itself as the separator.
		sep = ":"
		args = args[1:]
	}
	if len(args) > 0 && args[0] != "" {
		sep = args[0]
	}
	if len(args) > 1 {
		rangeSpec = strings.Join(args[1:], ":")
	}
	parts := strings.Split(v.String(), sep)
	if rangeSpec == "" {
		return listValue(parts), nil
	}
	lo, hi, err := parseRange(rangeSpec, len(parts))
	if err != nil {
		return value{}, err
	}
	if hi-lo == 1 {
		return scalarValue(parts[lo]), nil
	}
	return listValue(parts[lo:hi]), nil
}

func opJoin(args []string, v value) (value, error) {
	sep := ""
	if len(args) > 0 {
		sep = strings.Join(args, ":")
	}
	if !v.isList {
		return v, nil
	}
	return scalarValue(strings.Join(v.list, sep)), nil
}

func opReplace(args []string, v value) (value, error) {
	spec := strings.Join(args, ":")
	if len(spec) < 2 || spec[0] != 's' || spec[1] != '/' {
		return value{}, fmt.Errorf("malformed replace spec %q, want s/PAT/REPL/FLAGS", spec)
	}
	fields, err := splitSlashFields(spec[2:])
	if err != nil || len(fields) < 2 {
		return value{}, fmt.Errorf("malformed replace spec %q", spec)
	}
	pat := fields[0]
	repl := fields[1]
	flags := ""
	if len(fields) > 2 {
		flags = fields[2]
	}
	reSrc := pat
	if strings.Contains(flags, "i") {
		reSrc = "(?i)" + reSrc
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return value{}, fmt.Errorf("invalid replace pattern %q: %w", pat, err)
	}
	repl = convertBackrefs(repl)
	doReplace := func(s string) string {
		if strings.Contains(flags, "g") {
			return re.ReplaceAllString(s, repl)
		}
		replaced := false
		return re.ReplaceAllStringFunc(s, func(m string) string {
			if replaced {
				return m
			}
			replaced = true
			return re.ReplaceAllString(m, repl)
		})
	}
	return mapScalar(v, doReplace), nil
}

// convertBackrefs turns sed-style \1 backreferences into Go's $1 form.
func convertBackrefs(repl string) string {
	var out strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			out.WriteByte('$')
			out.WriteByte(repl[i+1])
			i++
			continue
		}
		out.WriteByte(repl[i])
	}
	return out.String()
}

// splitSlashFields splits "PAT/REPL/FLAGS" on unescaped '/'.
func splitSlashFields(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if s[i] == '/' {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	fields = append(fields, cur.String())
	return fields, nil
}

func opRegexExtract(args []string, v value) (value, error) {
	if len(args) == 0 {
		return value{}, fmt.Errorf("regex_extract requires a pattern")
	}
	pat := args[0]
	group := 0
	if len(args) > 1 {
		g, err := strconv.Atoi(args[1])
		if err != nil {
			return value{}, fmt.Errorf("invalid regex_extract group %q", args[1])
		}
		group = g
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return value{}, fmt.Errorf("invalid regex_extract pattern %q: %w", pat, err)
	}
	extract := func(s string) string {
		m := re.FindStringSubmatch(s)
		if m == nil || group >= len(m) {
			return ""
		}
		return m[group]
	}
	return mapScalar(v, extract), nil
}

func opFilter(args []string, v value) (value, error) {
	if len(args) == 0 {
		return value{}, fmt.Errorf("filter requires a pattern")
	}
	pat := strings.Join(args, ":")
	re, err := regexp.Compile(pat)
	if err != nil {
		return value{}, fmt.Errorf("invalid filter pattern %q: %w", pat, err)
	}
	if !v.isList {
		if re.MatchString(v.scalar) {
			return v, nil
		}
		return scalarValue(""), nil
	}
	var out []string
	for _, s := range v.list {
		if re.MatchString(s) {
			out = append(out, s)
		}
	}
	return listValue(out), nil
}

func opSort(args []string, v value) (value, error) {
	desc := len(args) > 0 && args[0] == "desc"
	if !v.isList {
		return v, nil
	}
	out := append([]string(nil), v.list...)
	sort.Strings(out)
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return listValue(out), nil
}

func opUnique(v value) value {
	if !v.isList {
		return v
	}
	seen := make(map[string]struct{}, len(v.list))
	var out []string
	for _, s := range v.list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return listValue(out)
}

func opPad(args []string, v value) (value, error) {
	if len(args) < 2 {
		return value{}, fmt.Errorf("pad requires WIDTH and CH")
	}
	width, err := strconv.Atoi(args[0])
	if err != nil {
		return value{}, fmt.Errorf("invalid pad width %q", args[0])
	}
	ch := args[1]
	if ch == "" {
		ch = " "
	}
	side := "left"
	if len(args) > 2 {
		side = args[2]
	}
	pad := func(s string) string {
		n := width - len([]rune(s))
		if n <= 0 {
			return s
		}
		filler := strings.Repeat(ch, n)
		if side == "right" {
			return s + filler
		}
		return filler + s
	}
	return mapScalar(v, pad), nil
}

func opMap(args []string, v value, opts Options) (value, error) {
	if len(args) == 0 {
		return value{}, fmt.Errorf("map requires a sub-expression")
	}
	inner := strings.Join(args, ":")
	inner = strings.TrimPrefix(inner, "{")
	inner = strings.TrimSuffix(inner, "}")
	mapped := func(s string) string {
		r, err := evalChain(inner, s, opts)
		if err != nil {
			return s
		}
		return r
	}
	if !v.isList {
		return scalarValue(mapped(v.scalar)), nil
	}
	out := make([]string, len(v.list))
	for i, s := range v.list {
		out[i] = mapped(s)
	}
	return listValue(out), nil
}

// parseRange parses the N/N..M/N..=M/N../..M/.. range grammar, with
// negative indices counting from the end, returning a [lo, hi) pair
// clamped to [0, n].
func parseRange(spec string, n int) (int, int, error) {
	if !strings.Contains(spec, "..") {
		i, err := strconv.Atoi(spec)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range %q", spec)
		}
		idx := normalizeIndex(i, n)
		if idx < 0 || idx >= n {
			return 0, 0, fmt.Errorf("index %d out of range (len %d)", i, n)
		}
		return idx, idx + 1, nil
	}

	inclusive := strings.Contains(spec, "..=")
	var left, right string
	if inclusive {
		parts := strings.SplitN(spec, "..=", 2)
		left, right = parts[0], parts[1]
	} else {
		parts := strings.SplitN(spec, "..", 2)
		left, right = parts[0], parts[1]
	}

	lo := 0
	if left != "" {
		i, err := strconv.Atoi(left)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range start %q", left)
		}
		lo = normalizeIndex(i, n)
	}
	hi := n
	if right != "" {
		i, err := strconv.Atoi(right)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range end %q", right)
		}
		hi = normalizeIndex(i, n)
		if inclusive {
			hi++
		}
	}
	lo = clamp(lo, 0, n)
	hi = clamp(hi, 0, n)
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// shellEscape wraps s in single quotes for substitution into a POSIX shell
// command line, closing and reopening the quote around any embedded
// single quote (the standard '\'' technique — doubling quotes is not
// valid inside a single-quoted string).
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
