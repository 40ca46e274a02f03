// internal/charset/resolver_test.go
package charset

import (
	"errors"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

func newResolver(t *testing.T, preferred string) *Resolver {
	t.Helper()
	r, err := New(preferred)
	if err != nil {
		t.Fatalf("New(%q): %v", preferred, err)
	}
	return r
}

func TestDecode_UTF8RoundTrip(t *testing.T) {
	r := newResolver(t, "")

	names := []string{
		"readme.txt",
		"文档/报告.docx",
		"日本語のファイル.txt",
		"café/naïve.txt",
		"ét́é.txt", // decomposed form must survive untouched
		"emoji_🎉.png",
		"�.bin",
		"",
	}

	for _, name := range names {
		if got := r.Decode([]byte(name)); got != name {
			t.Errorf("Decode(%q) = %q", name, got)
		}
	}
}

func TestResolve_LegacyEncodings(t *testing.T) {
	r := newResolver(t, "")

	gbk, err := simplifiedchinese.GBK.NewEncoder().String("中文文件.txt")
	if err != nil {
		t.Fatal(err)
	}
	got := r.Resolve([]byte(gbk), "")
	if got.Text != "中文文件.txt" || got.Encoding != "gbk" || got.Fallback {
		t.Errorf("GBK name resolved to %+v", got)
	}
}

func TestResolve_DeclaredCharsetWinsOverShortlist(t *testing.T) {
	r := newResolver(t, "")

	// Shift_JIS bytes that GBK would also accept
	sjis, err := japanese.ShiftJIS.NewEncoder().String("テスト.txt")
	if err != nil {
		t.Fatal(err)
	}

	got := r.Resolve([]byte(sjis), "shift_jis")
	if got.Text != "テスト.txt" || got.Encoding != "shift_jis" {
		t.Errorf("declared shift_jis resolved to %+v", got)
	}
}

func TestResolve_PreferredCharset(t *testing.T) {
	r := newResolver(t, "big5")

	big5, err := traditionalchinese.Big5.NewEncoder().String("資料.txt")
	if err != nil {
		t.Fatal(err)
	}

	got := r.Resolve([]byte(big5), "")
	if got.Text != "資料.txt" || got.Encoding != "big5" {
		t.Errorf("preferred big5 resolved to %+v", got)
	}
}

func TestResolve_PriorityIsDeterministic(t *testing.T) {
	r := newResolver(t, "")
	raw := []byte{0xC4, 0xE3, 0xBA, 0xC3} // valid GBK and valid Big5

	first := r.Resolve(raw, "")
	for i := 0; i < 10; i++ {
		if got := r.Resolve(raw, ""); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
	if first.Encoding != "gbk" {
		t.Errorf("expected gbk to win by priority, got %s", first.Encoding)
	}
}

func TestResolve_PlaceholderFallback(t *testing.T) {
	r := newResolver(t, "")

	got := r.Resolve([]byte{'a', 0x81}, "")
	if !got.Fallback {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if got.Text != "a_" {
		t.Errorf("fallback text = %q, want %q", got.Text, "a_")
	}
	if got.Encoding != FallbackName {
		t.Errorf("encoding = %q, want %q", got.Encoding, FallbackName)
	}
}

func TestPlaceholderDecode_KeepsValidRunes(t *testing.T) {
	raw := append([]byte("日"), 0xFF, 'x')
	if got := placeholderDecode(raw); got != "日_x" {
		t.Errorf("placeholderDecode = %q", got)
	}
}

func TestNew_UnknownCharset(t *testing.T) {
	_, err := New("klingon-8")
	if !errors.Is(err, ErrUnknownCharset) {
		t.Fatalf("expected ErrUnknownCharset, got %v", err)
	}
}
