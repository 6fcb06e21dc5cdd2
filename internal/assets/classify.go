package assets

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Kind classifies an asset reference found in a template.
type Kind int

const (
	// Local references resolve against the template directory and are copied.
	Local Kind = iota
	// Empty references carry nothing to rebase.
	Empty
	// Anchor references are a bare query or fragment.
	Anchor
	// Absolute references are filesystem-absolute paths.
	Absolute
	// Remote references carry a scheme separator.
	Remote
	// Data references are inline data: URIs.
	Data
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Empty:
		return "empty"
	case Anchor:
		return "anchor"
	case Absolute:
		return "absolute"
	case Remote:
		return "remote"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}

// Rebasable reports whether references of this kind are rewritten and copied.
func (k Kind) Rebasable() bool {
	return k == Local
}

// Classify decides how a reference is treated by the rebaser.
func Classify(ref string) Kind {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Empty
	case len(ref) >= 5 && strings.EqualFold(ref[:5], "data:"):
		return Data
	case strings.Contains(ref, "://"):
		return Remote
	case strings.HasPrefix(ref, "/") || filepath.IsAbs(ref):
		return Absolute
	case ref[0] == '?' || ref[0] == '#':
		return Anchor
	}
	return Local
}

// SplitSuffix separates a reference at the earliest '?' or '#'.
func SplitSuffix(ref string) (p, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// PublicURL places name under publicPath. Absolute URLs are joined as URLs,
// anything else as a slash-separated path. An empty publicPath yields name.
func PublicURL(publicPath, name string) string {
	if publicPath == "" {
		return name
	}
	if u, err := url.Parse(publicPath); err == nil && u.Scheme != "" && u.Host != "" {
		if joined, err := url.JoinPath(publicPath, name); err == nil {
			return joined
		}
	}
	return path.Join(publicPath, name)
}
