package contentmerge

import "github.com/BurntSushi/toml"

// Options configures the handlers that resolve scalar-attribute
// disagreements during content merge (§4.F). Decoded the way the teacher
// decodes its own config structs (BurntSushi/toml), e.g.
// modules/zeta/config.
type Options struct {
	// PreferredVisibility breaks a tie when a MODIFIER merge ends up with
	// more than one visibility keyword present (e.g. left added "public",
	// right added "protected" to a base with neither).
	PreferredVisibility string `toml:"preferred_visibility"`

	// CommentMergeStyle selects how COMMENT_CONTENT disagreements are
	// handled: "line" runs linemerge and embeds diff3 markers on overlap,
	// "skip" leaves the comment an unresolved conflict untouched.
	CommentMergeStyle string `toml:"comment_merge_style"`
}

// DefaultOptions returns the engine's built-in defaults (§4.F): no
// preferred visibility (ambiguity is reported as a conflict) and the
// line-based comment merge style.
func DefaultOptions() Options {
	return Options{
		CommentMergeStyle: "line",
	}
}

// LoadOptions decodes Options from a TOML file at path.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	_, err := toml.DecodeFile(path, &opts)
	return opts, err
}
