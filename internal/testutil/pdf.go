// Package testutil provides fixtures and scratch space for tests and examples.
package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// BuildPDF assembles a minimal, well-formed PDF with one page object per
// entry in pages. Each entry is extra content for that page dictionary, for
// example "/MediaBox [0 0 612 792] /Rotate 90"; /Type and /Parent are added.
// treeExtra is appended to the page tree root, where inheritable attributes
// such as /MediaBox may be placed.
//
// Usage:
//
//	data := testutil.BuildPDF("/MediaBox [0 0 612 792]", "", "/Rotate 90")
func BuildPDF(treeExtra string, pages ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d %s >>", strings.Join(kids, " "), len(pages), treeExtra))
	for _, p := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R %s >>", p))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// MediaBox returns a page entry for BuildPDF with the given size in points.
func MediaBox(width, height float32) string {
	return fmt.Sprintf("/MediaBox [0 0 %g %g]", width, height)
}
