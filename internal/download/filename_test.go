package download

import "testing"

func TestFilenameFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{
			name:   "plain filename",
			header: `attachment; filename="doc.pdf"`,
			want:   "doc.pdf",
			wantOK: true,
		},
		{
			name:   "disallowed characters replaced",
			header: `attachment; filename="a b/c?.pdf"`,
			want:   "a_b_c_.pdf",
			wantOK: true,
		},
		{
			name:   "percent-encoded name decoded before sanitizing",
			header: `attachment; filename="report%202024.pdf"`,
			want:   "report_2024.pdf",
			wantOK: true,
		},
		{
			name:   "no header",
			header: "",
			wantOK: false,
		},
		{
			name:   "no filename token",
			header: "attachment",
			wantOK: false,
		},
		{
			name:   "filename token without quoted value",
			header: "attachment; filename=",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilenameFromHeader(tt.header)
			if ok != tt.wantOK {
				t.Fatalf("FilenameFromHeader(%q) ok = %v, want %v", tt.header, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FilenameFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doc.pdf", "doc.pdf"},
		{"a b/c?.pdf", "a_b_c_.pdf"},
		{"путевой лист.pdf", "____________.pdf"},
		{"under_score-dash.keep", "under_score-dash.keep"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
