package audio

import "testing"

func TestFileNameByContainer(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{MIMEWebM, "recording.webm"},
		{"audio/webm;codecs=opus", "recording.webm"},
		{MIMEOgg, "recording.ogg"},
		{"audio/ogg;codecs=opus", "recording.ogg"},
		{MIMEWAV, "recording.wav"},
		{"", "recording.webm"},
	}
	for _, tc := range cases {
		got := EncodedAudio{MIME: tc.mime}.FileName()
		if got != tc.want {
			t.Fatalf("mime %q: expected %q, got %q", tc.mime, tc.want, got)
		}
	}
}

func TestPCMRateParsing(t *testing.T) {
	if got := PCMRate(PCMMIME(44100)); got != 44100 {
		t.Fatalf("expected 44100, got %d", got)
	}
	if got := PCMRate(MIMEPCM); got != 0 {
		t.Fatalf("expected 0 for missing rate, got %d", got)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	data, err := EncodeWAV([]int16{1, 2, 3}, 16000)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != 44+6 {
		t.Fatalf("expected 50 bytes, got %d", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("malformed header: %q", data[:12])
	}
	samples, rate, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rate != 16000 || len(samples) != 3 {
		t.Fatalf("round trip mismatch: rate=%d len=%d", rate, len(samples))
	}
}
