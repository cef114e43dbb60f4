package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanTextNormalizesWhitespace(t *testing.T) {
	in := "First  line\t with   spaces\n\n\n\nSecond\x00 paragraph here\n"
	got := CleanText(in)
	want := "First line with spaces\n\nSecond paragraph here"
	if got != want {
		t.Fatalf("CleanText:\n got %q\nwant %q", got, want)
	}
}

func TestCleanTextEmpty(t *testing.T) {
	if got := CleanText(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestSplitterShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 100)
	chunks := s.Split("A short paragraph.")
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestSplitterRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	s := NewSplitter(1000, 100)
	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Fatalf("chunk %d exceeds size: %d", i, len(c))
		}
	}
}

func TestSplitterOverlapCarriesText(t *testing.T) {
	words := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		words = append(words, "lorem")
	}
	s := NewSplitter(200, 50)
	chunks := s.Split(strings.Join(words, " "))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Consecutive chunks share their boundary words.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Fatalf("expected overlap between chunks, chunk0 tail %q not in chunk1", tail)
	}
}

func TestSplitterPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 30)
	para2 := strings.Repeat("beta ", 30)
	s := NewSplitter(200, 20)
	chunks := s.Split(strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %#v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "beta") {
		t.Fatalf("paragraphs not kept separate: %q", chunks[0])
	}
}

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText("notes.txt", "text/plain", []byte("hello world"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextUTF16(t *testing.T) {
	// "hi" as UTF-16LE with BOM
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	got, err := ExtractText("notes.txt", "text/plain", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "hi" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextLatin1(t *testing.T) {
	// "café" in Latin-1/Windows-1252
	data := []byte{'c', 'a', 'f', 0xE9}
	got, err := ExtractText("notes.txt", "text/plain", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "café" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextHTML(t *testing.T) {
	html := "<!doctype html><html><body><p>Hello &amp; welcome</p></body></html>"
	got, err := ExtractText("page.html", "text/html", []byte(html))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(got, "Hello & welcome") {
		t.Fatalf("unexpected text %q", got)
	}
	if strings.Contains(got, "<") {
		t.Fatalf("tags not stripped: %q", got)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if _, err := ExtractText("x.txt", "text/plain", nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestExtractTextFakePDF(t *testing.T) {
	if _, err := ExtractText("book.pdf", "application/pdf", []byte("not a pdf")); err == nil {
		t.Fatal("expected error for fake pdf")
	}
}

func TestExtractTextFakeEPUB(t *testing.T) {
	if _, err := ExtractText("book.epub", "application/epub+zip", []byte("plain prose, no zip magic")); err == nil {
		t.Fatal("expected error for fake epub")
	}
}

func TestSplitEveryKeepsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("نظامِ تشغیل ", 40)
	for _, chunk := range splitEvery(text, 25) {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk is not valid UTF-8: %q", chunk)
		}
	}
	var rebuilt strings.Builder
	for _, chunk := range splitEvery(text, 25) {
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Fatal("chunks do not reassemble to the input")
	}
}
