package shorts

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// SceneKind discriminates the SceneRequest variants.
type SceneKind string

const (
	// SceneSearch scenes find stock footage with search terms.
	SceneSearch SceneKind = "search"
	// SceneImage scenes show a caller-supplied image.
	SceneImage SceneKind = "image"
)

// SceneRequest is one narrated segment as submitted by the client. Exactly one
// of SearchTerms or ImageRef is meaningful, selected by Kind. ImageRef names a
// file relative to the daemon's images directory.
type SceneRequest struct {
	Kind        SceneKind `json:"kind" yaml:"kind"`
	Text        string    `json:"text" yaml:"text"`
	SearchTerms []string  `json:"searchTerms,omitempty" yaml:"searchTerms,omitempty"`
	ImageRef    string    `json:"image,omitempty" yaml:"image,omitempty"`
}

// NewSearchScene builds a footage-search scene.
func NewSearchScene(text string, terms ...string) SceneRequest {
	return SceneRequest{Kind: SceneSearch, Text: text, SearchTerms: terms}
}

// NewImageScene builds an image-backed scene.
func NewImageScene(text, imageRef string) SceneRequest {
	return SceneRequest{Kind: SceneImage, Text: text, ImageRef: imageRef}
}

// WithText returns a copy of the scene carrying different narration. Search
// terms are copied so chunks never share a backing array.
func (s SceneRequest) WithText(text string) SceneRequest {
	out := s
	out.Text = text
	if s.SearchTerms != nil {
		out.SearchTerms = append([]string(nil), s.SearchTerms...)
	}
	return out
}

func (s SceneRequest) validate(index int) error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("scene %d: narration text is required", index)
	}
	switch s.Kind {
	case SceneSearch:
		for _, term := range s.SearchTerms {
			if strings.TrimSpace(term) != "" {
				return nil
			}
		}
		return fmt.Errorf("scene %d: at least one search term is required", index)
	case SceneImage:
		if strings.TrimSpace(s.ImageRef) == "" {
			return fmt.Errorf("scene %d: image reference is required", index)
		}
		if err := CheckImageRef(s.ImageRef); err != nil {
			return fmt.Errorf("scene %d: %w", index, err)
		}
		return nil
	default:
		return fmt.Errorf("scene %d: unknown scene kind %q", index, s.Kind)
	}
}

// CheckImageRef accepts slash-separated relative names that stay inside the
// images directory. URLs, protocol prefixes, absolute paths and ".." segments
// are rejected.
func CheckImageRef(ref string) error {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return errors.New("image reference is required")
	case strings.ContainsAny(ref, ":\\\x00"):
		return fmt.Errorf("image reference %q must be a relative file name", ref)
	case strings.HasPrefix(ref, "/"):
		return fmt.Errorf("image reference %q must not be absolute", ref)
	}
	for _, segment := range strings.Split(ref, "/") {
		if segment == ".." {
			return fmt.Errorf("image reference %q must not leave the images directory", ref)
		}
	}
	if cleaned := path.Clean(ref); cleaned == "." || strings.HasSuffix(ref, "/") {
		return fmt.Errorf("image reference %q does not name a file", ref)
	}
	return nil
}
