package models

import (
	"strings"
)

// Separator delimits the segments of a path.
const Separator = "/"

// Address is a resolved node position: its own title, the path of its
// parent chain, and the type implied by the path depth.
type Address struct {
	Title string   `json:"title"`
	Path  string   `json:"path"`
	Type  NodeType `json:"type"`
}

// Resolve turns a title and/or path into a normalized Address.
//
//   - title only: the node is a sector with an empty path.
//   - path only: the last segment is the title, the rest is the path.
//   - both: path addresses the parent and title is the node itself.
//
// Leading, trailing and repeated separators in path are ignored, so
// Resolve("", "a/b/c") and Resolve("c", "/a/b/") are equal.
func Resolve(title, path string) (Address, error) {
	segments := SplitPath(path)
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return Address{}, addressError("path", "path %q contains a blank segment", path)
		}
	}

	if title == "" {
		if len(segments) == 0 {
			return Address{}, addressError("title", "either title or path must be provided")
		}
		depth := len(segments) - 1
		typ, err := TypeForDepth(depth)
		if err != nil {
			return Address{}, err
		}
		return Address{
			Title: segments[depth],
			Path:  strings.Join(segments[:depth], Separator),
			Type:  typ,
		}, nil
	}

	if err := checkTitle(title); err != nil {
		return Address{}, err
	}
	typ, err := TypeForDepth(len(segments))
	if err != nil {
		return Address{}, err
	}
	return Address{
		Title: title,
		Path:  strings.Join(segments, Separator),
		Type:  typ,
	}, nil
}

func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return addressError("title", "title cannot be blank")
	}
	if strings.Contains(title, Separator) {
		return addressError("title", "title %q cannot contain %q", title, Separator)
	}
	return nil
}

// String returns the fully qualified "path/title" form.
func (a Address) String() string {
	return JoinPath(a.Path, a.Title)
}

// Segments returns every title from the root down to and including a.Title.
func (a Address) Segments() []string {
	return append(SplitPath(a.Path), a.Title)
}

// Parent returns the address of the node a.Path points at. Roots have none.
func (a Address) Parent() (Address, bool) {
	segments := SplitPath(a.Path)
	if len(segments) == 0 {
		return Address{}, false
	}
	depth := len(segments) - 1
	return Address{
		Title: segments[depth],
		Path:  strings.Join(segments[:depth], Separator),
		Type:  NodeType(depth),
	}, true
}

// NormalizePath strips leading, trailing and repeated separators.
func NormalizePath(path string) string {
	return strings.Join(SplitPath(path), Separator)
}

// SplitPath returns the non-empty segments of path.
func SplitPath(path string) []string {
	parts := strings.Split(path, Separator)
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// JoinPath joins non-empty parts with the separator.
func JoinPath(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = NormalizePath(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// IsWithin reports whether address equals ancestor or lies beneath it.
func IsWithin(address, ancestor string) bool {
	return address == ancestor || strings.HasPrefix(address, ancestor+Separator)
}
