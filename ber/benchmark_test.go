package ber

import "testing"

// BenchmarkBEREncodeInteger benchmarks minimal two's-complement integer
// encoding.
func BenchmarkBEREncodeInteger(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = EncodeSignedInt(int64(i))
	}
}

// BenchmarkBERDecodeInteger benchmarks bounded integer decoding.
func BenchmarkBERDecodeInteger(b *testing.B) {
	data := []byte{0x7f, 0xff, 0xff, 0xff} // max int32
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeBoundedInt(data)
	}
}

// BenchmarkBEREncodeBoolean benchmarks boolean encoding.
func BenchmarkBEREncodeBoolean(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = EncodeBoolean(i%2 == 0)
	}
}

// BenchmarkBERDecodeBoolean benchmarks boolean decoding.
func BenchmarkBERDecodeBoolean(b *testing.B) {
	data := []byte{0xFF}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeBoolean(data)
	}
}

// BenchmarkBEREncodeOctetString benchmarks UTF-8 string encoding.
func BenchmarkBEREncodeOctetString(b *testing.B) {
	s := "uid=alice,ou=users,dc=example,dc=com"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = EncodeUTF8(s)
	}
}

// BenchmarkBERDecodeOctetString benchmarks UTF-8 string decoding.
func BenchmarkBERDecodeOctetString(b *testing.B) {
	data := []byte("uid=alice,ou=users,dc=example,dc=com")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeUTF8(data, false)
	}
}

// BenchmarkBERAppendTagAndLength benchmarks a full identifier+length
// header append for a constructed APPLICATION tag.
func BenchmarkBERAppendTagAndLength(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := AppendTag(nil, ClassApplication, true, 3)
		_ = AppendLength(buf, 200)
	}
}

// BenchmarkTokenizerPeekHeader benchmarks header-only TLV parsing off
// the wire, the hot path of every container-bound decode step.
func BenchmarkTokenizerPeekHeader(b *testing.B) {
	buf := AppendTag(nil, ClassApplication, true, 3)
	buf = AppendLength(buf, 200)
	buf = append(buf, make([]byte, 200)...)

	var tok Tokenizer
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = tok.PeekHeader(buf)
	}
}
