package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTypeInference(t *testing.T) {
	testCases := []struct {
		name     string
		title    string
		path     string
		expected Address
	}{
		{"title only", "a", "", Address{Title: "a", Path: "", Type: Sector}},
		{"title and path", "a", "b", Address{Title: "a", Path: "b", Type: Area}},
		{"title and longer path", "a", "b/c", Address{Title: "a", Path: "b/c", Type: Project}},
		{"path only root", "", "a", Address{Title: "a", Path: "", Type: Sector}},
		{"path only nested", "", "work/x/sprint/task", Address{Title: "task", Path: "work/x/sprint", Type: Section}},
		{"deepest level", "", "a/b/c/d/e/f", Address{Title: "f", Path: "a/b/c/d/e", Type: Subtask}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Resolve(tc.title, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, addr)
		})
	}
}

func TestResolveEquivalence(t *testing.T) {
	testCases := []struct {
		path        string
		title       string
		parentPath  string
		description string
	}{
		{"a/b", "b", "a", "two levels"},
		{"a/b/c", "c", "a/b", "three levels"},
		{"a/b/c", "c", "/a/b/", "leading and trailing separators on parent"},
		{"a/b/c", "c", "/a/b", "leading separator on parent"},
		{"a/b/c", "c", "a/b/", "trailing separator on parent"},
		{"/a/b/c/", "c", "a/b", "separators on full path"},
		{"a//b///c", "c", "a/b", "repeated separators"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			fromPath, err := Resolve("", tc.path)
			require.NoError(t, err)
			fromBoth, err := Resolve(tc.title, tc.parentPath)
			require.NoError(t, err)
			assert.Equal(t, fromPath, fromBoth)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	testCases := []struct {
		name  string
		title string
		path  string
	}{
		{"nothing given", "", ""},
		{"only separators", "", "///"},
		{"separator in title", "a/b", "b/c"},
		{"separator in title without path", "a/b", ""},
		{"blank title", "   ", "a"},
		{"blank segment", "", "a/ /c"},
		{"too deep by path", "", "a/b/c/d/e/f/g"},
		{"too deep with title", "g", "a/b/c/d/e/f"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.title, tc.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAddress), "expected ErrInvalidAddress, got %v", err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestAddressParent(t *testing.T) {
	addr, err := Resolve("", "s/a/p")
	require.NoError(t, err)
	assert.Equal(t, "s/a/p", addr.String())
	assert.Equal(t, []string{"s", "a", "p"}, addr.Segments())

	parent, ok := addr.Parent()
	require.True(t, ok)
	assert.Equal(t, Address{Title: "a", Path: "s", Type: Area}, parent)

	root, ok := parent.Parent()
	require.True(t, ok)
	assert.Equal(t, Address{Title: "s", Path: "", Type: Sector}, root)

	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "a/b", NormalizePath("//a//b/"))
	assert.Equal(t, "", NormalizePath("/"))
	assert.Empty(t, SplitPath(""))
	assert.Equal(t, "a/b/c", JoinPath("a/b", "", "c"))
	assert.Equal(t, "c", JoinPath("", "c"))

	assert.True(t, IsWithin("a/b", "a"))
	assert.True(t, IsWithin("a", "a"))
	assert.False(t, IsWithin("ab", "a"))
	assert.False(t, IsWithin("a", "a/b"))
}

func TestTypeForDepth(t *testing.T) {
	for depth, expected := range []NodeType{Sector, Area, Project, Section, Task, Subtask} {
		typ, err := TypeForDepth(depth)
		require.NoError(t, err)
		assert.Equal(t, expected, typ)
		assert.Equal(t, depth, typ.Depth())
	}

	_, err := TypeForDepth(MaxDepth + 1)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = TypeForDepth(-1)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
