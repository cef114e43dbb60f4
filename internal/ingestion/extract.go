package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ExtractText sniffs the true file type from bytes, then extracts plain text.
// Supported: PDF, EPUB, DOCX, TXT/MD, HTML (strip tags).
func ExtractText(originalName string, mimeType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if len(data) == 0 {
		return "", fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
	}

	// 1) Sniff by magic bytes first (most reliable)
	if isPDF(data) {
		return extractPDF(data)
	}
	if isZip(data) {
		// Could be epub/docx/other zip. Detect by entries.
		kind, err := detectZipKind(data)
		if err != nil {
			return "", fmt.Errorf("zip container detect failed: %w", err)
		}
		switch kind {
		case "epub":
			return extractEPUB(data)
		case "docx":
			return extractDOCX(data)
		default:
			return "", fmt.Errorf("unsupported zip kind=%s name=%s mime=%s", kind, originalName, mimeType)
		}
	}

	// 2) A claimed pdf/epub/docx without its container magic is corrupt;
	// reject before the plaintext sniff can swallow it.
	if mt == "application/pdf" || ext == ".pdf" {
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s mime=%s", originalName, mimeType)
	}
	if ext == ".epub" || ext == ".docx" {
		return "", fmt.Errorf("file claims %s but is not a valid zip container: name=%s mime=%s", ext, originalName, mimeType)
	}

	// 3) Sniff as HTML
	if looksLikeHTML(data) || mt == "text/html" || ext == ".html" || ext == ".htm" {
		return stripHTML(string(data)), nil
	}

	// 4) Plaintext, decoding the common textbook-export encodings
	if isProbablyText(data) || mt == "text/plain" || ext == ".txt" || ext == ".md" || ext == ".markdown" {
		return decodeText(data)
	}

	return "", fmt.Errorf("unsupported file type: name=%s ext=%s mime=%s", originalName, ext, mimeType)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func looksLikeHTML(b []byte) bool {
	n := len(b)
	if n > 2048 {
		n = 2048
	}
	s := strings.ToLower(strings.TrimSpace(string(b[:n])))
	return strings.HasPrefix(s, "<!doctype") || strings.HasPrefix(s, "<html") ||
		(strings.Contains(s, "<html") && strings.Contains(s, "<body"))
}

func isProbablyText(b []byte) bool {
	n := len(b)
	if n > 4096 {
		n = 4096
	}
	sample := b[:n]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			// UTF-16 text has NULs every other byte; defer to decodeText.
			return hasUTF16BOM(b)
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF))
}

// decodeText tries UTF-8, then BOM-detected UTF-16, then Windows-1252.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})), nil
	}
	if hasUTF16BOM(data) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err == nil && utf8.Valid(out) {
			return string(out), nil
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("could not determine text encoding: %w", err)
	}
	return string(out), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

// PDFPageCount returns the page count without extracting text.
func PDFPageCount(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("pdf reader: %w", err)
	}
	return r.NumPage(), nil
}

func detectZipKind(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	hasWord := false
	hasEpubMeta := false
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/") {
			hasWord = true
		}
		if f.Name == "META-INF/container.xml" || f.Name == "mimetype" {
			hasEpubMeta = true
		}
	}
	switch {
	case hasEpubMeta:
		return "epub", nil
	case hasWord:
		return "docx", nil
	default:
		return "unknown", fmt.Errorf("zip does not look like epub or docx")
	}
}

// extractEPUB walks content documents (xhtml/html) in spine file order and
// strips markup.
func extractEPUB(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		out.WriteString(stripHTML(string(b)))
		out.WriteString("\n\n")
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from epub")
	}
	return s, nil
}

func extractDOCX(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()

	dec := xml.NewDecoder(bytes.NewReader(b))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "t":
			var v string
			_ = dec.DecodeElement(&v, &se)
			out.WriteString(v)
		case "p":
			out.WriteString("\n")
		}
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from docx")
	}
	return s, nil
}

var htmlTagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	return strings.TrimSpace(s)
}
