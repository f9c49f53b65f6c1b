// Package gitignore matches paths against .gitignore rules.
//
// Supported syntax: wildcards (*, ?, **, character classes), rooted patterns
// (/build), directory-only patterns (build/), negation (!keep.log) and escaped
// leading # and !. Each Matcher holds the rules of one .gitignore file and is
// scoped to the directory that file lives in:
//
//	root, _ := gitignore.FromFile("/repo/.gitignore", "")
//	sub, _ := gitignore.FromFile("/repo/docs/.gitignore", "docs")
//	ignored := root.Match("docs/draft.md", false) || sub.Match("docs/draft.md", false)
package gitignore
