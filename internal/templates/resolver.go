package templates

import (
	"fmt"
	"sync"

	"github.com/akarpovich/deckport/internal/anki"
)

// FieldSide classifies where a field appears on the rendered card.
type FieldSide string

const (
	SideFront FieldSide = "front"
	SideBack  FieldSide = "back"
	SideBoth  FieldSide = "both"
	SideNone  FieldSide = "none"
)

// FieldSideMap maps every field name of a note-type to its side.
type FieldSideMap map[string]FieldSide

// Resolver computes field-side maps from note-type templates. Results are
// cached per note-type ID for the lifetime of the resolver, which is one
// import run.
type Resolver struct {
	mu    sync.Mutex
	cache map[int64]resolved
}

type resolved struct {
	sides    FieldSideMap
	warnings []string
}

// NewResolver creates an empty per-run resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[int64]resolved)}
}

// Resolve classifies every field of the note-type as front, back, both or
// none by scanning all of its templates. A template that fails to parse
// degrades the whole note-type to the safe over-inclusive "both" and is
// reported as a warning; it never fails the import.
func (r *Resolver) Resolve(noteType *anki.NoteType) (FieldSideMap, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[noteType.ID]; ok {
		return cached.sides, cached.warnings
	}

	sides, warnings := resolveSides(noteType)
	r.cache[noteType.ID] = resolved{sides: sides, warnings: warnings}
	return sides, warnings
}

func resolveSides(noteType *anki.NoteType) (FieldSideMap, []string) {
	front := make(map[string]bool)
	back := make(map[string]bool)

	for _, tmpl := range noteType.Templates {
		frontNodes, err := Parse(tmpl.Front)
		if err != nil {
			return allBoth(noteType), []string{
				fmt.Sprintf("note-type %q template %q: front side: %v", noteType.Name, tmpl.Name, err),
			}
		}
		backNodes, err := Parse(tmpl.Back)
		if err != nil {
			return allBoth(noteType), []string{
				fmt.Sprintf("note-type %q template %q: back side: %v", noteType.Name, tmpl.Name, err),
			}
		}

		frontRefs := collectRefs(frontNodes, nil)
		// {{FrontSide}} folds the front template's references into the back
		// side without re-scanning the macro body.
		backRefs := collectRefs(backNodes, frontRefs)

		for name := range frontRefs {
			front[name] = true
		}
		for name := range backRefs {
			back[name] = true
		}
	}

	sides := make(FieldSideMap, len(noteType.Fields))
	for _, field := range noteType.Fields {
		switch {
		case front[field] && back[field]:
			sides[field] = SideBoth
		case front[field]:
			sides[field] = SideFront
		case back[field]:
			sides[field] = SideBack
		default:
			sides[field] = SideNone
		}
	}
	return sides, nil
}

// collectRefs gathers every field referenced by the node list.
// frontRefs, when non-nil, substitutes for any FrontSide macro encountered.
func collectRefs(nodes []Node, frontRefs map[string]bool) map[string]bool {
	refs := make(map[string]bool)
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch node := n.(type) {
			case FieldRef:
				refs[node.Name] = true
			case FilteredRef:
				refs[node.Name] = true
			case Section:
				refs[node.Field] = true
				walk(node.Body)
			case FrontSideMacro:
				for name := range frontRefs {
					refs[name] = true
				}
			}
		}
	}
	walk(nodes)
	return refs
}

// allBoth is the degraded classification used when a template cannot be
// parsed: every field is assumed visible on both sides.
func allBoth(noteType *anki.NoteType) FieldSideMap {
	sides := make(FieldSideMap, len(noteType.Fields))
	for _, field := range noteType.Fields {
		sides[field] = SideBoth
	}
	return sides
}
