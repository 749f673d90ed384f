package markdown

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	imgPattern   = regexp.MustCompile(`(?is)<img\b[^>]*\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))[^>]*/?>`)
	soundPattern = regexp.MustCompile(`\[sound:([^\]]+)\]`)
	avPattern    = regexp.MustCompile(`(?is)<(audio|video)\b[^>]*\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))[^>]*>(?:\s*</(?:audio|video)>)?`)
)

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mkv": true, ".mov": true, ".avi": true,
}

// extractMedia replaces every embedded media reference with a positional
// placeholder token and records the references in order of appearance.
// Running before any other transformation guarantees the embed syntax is
// never touched by the markup passes.
func extractMedia(input string) (string, []MediaRef) {
	var refs []MediaRef

	record := func(name string, kind MediaKind) string {
		refs = append(refs, MediaRef{Name: name, Kind: kind})
		return mediaPlaceholder(len(refs) - 1)
	}

	out := imgPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := firstSubmatch(imgPattern, match)
		if name == "" {
			return match
		}
		return record(name, MediaImage)
	})

	out = avPattern.ReplaceAllStringFunc(out, func(match string) string {
		groups := avPattern.FindStringSubmatch(match)
		name := groups[2] + groups[3] + groups[4]
		if name == "" {
			return match
		}
		kind := MediaAudio
		if strings.EqualFold(groups[1], "video") {
			kind = MediaVideo
		}
		return record(name, kind)
	})

	out = soundPattern.ReplaceAllStringFunc(out, func(match string) string {
		name := soundPattern.FindStringSubmatch(match)[1]
		// [sound:...] carries both audio and video in source decks;
		// disambiguate on the file extension.
		kind := MediaAudio
		if videoExtensions[strings.ToLower(filepath.Ext(name))] {
			kind = MediaVideo
		}
		return record(name, kind)
	})

	return out, refs
}

func firstSubmatch(re *regexp.Regexp, match string) string {
	groups := re.FindStringSubmatch(match)
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
