// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/novel-engine/pkg/types"
)

// FinalTextFile is the readable export written next to final_novel.json.
const FinalTextFile = "final_novel.txt"

var rule = strings.Repeat("=", 50)

// FormatNovel renders novel as plain text: the premise, a character sheet,
// then each chapter's final version in order. A chapter whose text does not
// already carry a "Chapter" heading gets one, so the publisher can split on
// it.
func FormatNovel(novel *types.Novel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Novel Premise:\n%s\n%s\n\n", rule, strings.TrimSpace(novel.Metadata.Premise))

	fmt.Fprintf(&b, "Characters:\n%s\n", rule)
	keys := make([]string, 0, len(novel.Characters.Characters))
	for k := range novel.Characters.Characters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch := novel.Characters.Characters[k]
		fmt.Fprintf(&b, "\n%s:\nRole: %s\nDescription: %s\nKey Traits: %s\n\n",
			ch.Name, ch.Role, ch.Description, strings.Join(ch.KeyTraits, ", "))
	}

	for n := 1; n <= novel.Metadata.NumChapters; n++ {
		rec, ok := novel.Chapters[types.ChapterKey(n)]
		if !ok || rec.FinalVersion == "" {
			continue
		}
		if !strings.Contains(rec.FinalVersion, "Chapter") {
			fmt.Fprintf(&b, "\nChapter %d\n", n)
		}
		fmt.Fprintf(&b, "%s\n\n%s\n\n", rule, rec.FinalVersion)
	}
	return b.String()
}
