package writer

import "testing"

func TestStrtabEmptyStringAtOffsetZero(t *testing.T) {
	s := newStrtab()
	if got := s.Add(""); got != 0 {
		t.Errorf("Add(\"\") = %d; want 0", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d; want 1 (just the NUL)", s.Len())
	}
}

func TestStrtabDedup(t *testing.T) {
	s := newStrtab()
	first := s.Add("libc.so.6")
	second := s.Add("libc.so.6")
	if first != second {
		t.Errorf("Add called twice with the same string returned different offsets: %d vs %d", first, second)
	}
	if got := s.Add("libm.so.6"); got == first {
		t.Errorf("distinct strings got the same offset %d", got)
	}
}

func TestStrtabBytesNulTerminated(t *testing.T) {
	s := newStrtab()
	off := s.Add("abc")
	buf := s.Bytes()
	if buf[off] != 'a' || buf[off+1] != 'b' || buf[off+2] != 'c' || buf[off+3] != 0 {
		t.Errorf("Bytes() around offset %d = %v; want \"abc\\x00\"", off, buf[off:off+4])
	}
}
