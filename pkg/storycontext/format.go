package storycontext

import "strings"

const contextHeader = "# Project Context"

// FormatContextForPrompt renders a snapshot as a Markdown block. The output
// depends only on the snapshot, so equal snapshots render byte-identically.
func FormatContextForPrompt(snapshot *Snapshot) string {
	if snapshot == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")

	writeSection(&b, "Characters", snapshot.Characters)
	writeSection(&b, "World Building", snapshot.WorldBuilding)
	writeSection(&b, "Timeline", snapshot.Timeline)
	writeSection(&b, "Recent Chapters", snapshot.Chapters)

	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n## ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
