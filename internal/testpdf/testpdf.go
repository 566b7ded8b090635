// Package testpdf assembles small PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Build numbers objs from 1 and writes them with a matching xref table.
// Object 1 must be the catalog. trailer is inserted into the trailer
// dictionary verbatim, e.g. "/Info 9 0 R".
func Build(trailer string, objs ...string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R %s >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, trailer, xref)
	return b.Bytes()
}

// Stream formats a stream object with the correct /Length.
func Stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

const (
	pixels  = "\xff\x00\x00\x00\xff\x00\x00\x00\xff\xff\xff\xff"
	content = "BT /F1 18 Tf 20 150 Td (Quarterly results) Tj ET\nq 100 0 0 100 50 20 cm /Im0 Do Q"
)

func image() string {
	return Stream("/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceRGB /BitsPerComponent 8", pixels)
}

func page() string {
	return "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /Font << /F1 5 0 R >> /XObject << /Im0 4 0 R >> >> /Contents 6 0 R >>"
}

// Untagged is a one-page document with text and one 2x2 RGB image but no
// structure tree.
func Untagged() []byte {
	return Build("/Info 7 0 R",
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		page(),
		image(),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		Stream("", content),
		"<< /Producer (testpdf) >>",
	)
}

// Tagged is Untagged plus a structure tree Document > [H1, Figure(alt)],
// /MarkInfo, /Lang and an info /Title.
func Tagged() []byte {
	return Structured(
		"<< /Type /StructTreeRoot /K 9 0 R >>",
		"<< /Type /StructElem /S /Document /P 8 0 R /K [10 0 R 11 0 R] >>",
		"<< /Type /StructElem /S /H1 /P 9 0 R /Pg 3 0 R /K 0 >>",
		"<< /Type /StructElem /S /Figure /P 9 0 R /Pg 3 0 R /Alt (Bar chart of revenue) /K 1 >>",
	)
}

// Structured is the Untagged page with /MarkInfo, /Lang and a title, whose
// catalog points /StructTreeRoot at object 8. tree supplies objects 8
// onwards, starting with the structure tree root.
func Structured(tree ...string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R /StructTreeRoot 8 0 R /MarkInfo << /Marked true >> /Lang (en-US) >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		page(),
		image(),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		Stream("", content),
		"<< /Title (Quarterly report) /Producer (testpdf) >>",
	}
	return Build("/Info 7 0 R", append(objs, tree...)...)
}

// WriteFile writes data into a fresh temp dir and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
