package source

import (
	"net/url"
	"path"
	"path/filepath"
)

// Kind tells which transport serves a Reference
type Kind int

const (
	Local Kind = iota
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Reference is a classified path or URL. The zero value is an empty local path.
type Reference struct {
	kind  Kind
	value string
}

// Classify decides once whether s is served over the network or read from the
// filesystem. Absolute URLs with a host are Remote, file:// URLs are Local by
// their path, everything else is a Local path.
func Classify(s string) Reference {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return Reference{kind: Local, value: s}
	}

	if u.Scheme == "file" {
		return Reference{kind: Local, value: u.Path}
	}

	// windows drive letters parse as a scheme without host
	if u.Host == "" {
		return Reference{kind: Local, value: s}
	}

	return Reference{kind: Remote, value: s}
}

func (r Reference) Kind() Kind {
	return r.kind
}

func (r Reference) IsRemote() bool {
	return r.kind == Remote
}

func (r Reference) String() string {
	return r.value
}

// Ext returns the extension of the referenced file, ignoring URL query and fragment
func (r Reference) Ext() string {
	if r.kind == Remote {
		u, err := url.Parse(r.value)
		if err != nil {
			return ""
		}
		return path.Ext(u.Path)
	}

	return filepath.Ext(r.value)
}
