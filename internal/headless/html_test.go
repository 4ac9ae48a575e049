package headless

import "testing"

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "simple title",
			body: "<html><head><title>Field Notes</title></head><body></body></html>",
			want: "Field Notes",
		},
		{
			name: "whitespace trimmed",
			body: "<html><head><title>\n  Field Notes \t</title></head></html>",
			want: "Field Notes",
		},
		{
			name: "first title wins",
			body: "<html><head><title>First</title></head><body><svg><title>Second</title></svg></body></html>",
			want: "First",
		},
		{
			name: "no title",
			body: "<html><head></head><body><h1>Heading</h1></body></html>",
			want: "",
		},
		{
			name: "truncated document",
			body: "<html><head><title>Cut Off</title><scri",
			want: "Cut Off",
		},
		{
			name: "not html at all",
			body: "{\"kind\": \"json\"}",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := documentTitle([]byte(tc.body)); got != tc.want {
				t.Fatalf("documentTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsHTMLContent(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := isHTMLContent(tc.contentType); got != tc.want {
			t.Errorf("isHTMLContent(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}
