package speech

import "testing"

func TestCleanForTTS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Hello there, how are you?",
			want:  "Hello there, how are you?",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "code block removed",
			input: "Look at this:\n```go\nfmt.Println(\"hi\")\n```\nneat, right?",
			want:  "Look at this: neat, right?",
		},
		{
			name:  "inline code removed",
			input: "run `go test` to check",
			want:  "run to check",
		},
		{
			name:  "headers stripped",
			input: "## Today's plan\nWe bake bread.",
			want:  "Today's plan We bake bread.",
		},
		{
			name:  "bold keeps text",
			input: "this is **very** important and __really__ true",
			want:  "this is very important and really true",
		},
		{
			name:  "multiword action removed",
			input: "*waves excitedly* Hi there!",
			want:  "Hi there!",
		},
		{
			name:  "single word emphasis kept",
			input: "that was *amazing* today",
			want:  "that was amazing today",
		},
		{
			name:  "underscore italic keeps text",
			input: "a _gentle_ reminder",
			want:  "a gentle reminder",
		},
		{
			name:  "links keep text, images vanish",
			input: "see [the docs](https://example.com/docs) and ![a chart](https://example.com/img.png)",
			want:  "see the docs and",
		},
		{
			name:  "bare urls removed",
			input: "check https://example.com/page and www.example.org please",
			want:  "check and please",
		},
		{
			name:  "parenthetical action removed",
			input: "(sighs) fine, I'll do it",
			want:  "fine, I'll do it",
		},
		{
			name:  "smart quotes normalized",
			input: "“don’t”",
			want:  `"don't"`,
		},
		{
			name:  "emoji removed",
			input: "great job 🎉🎉 team 😄",
			want:  "great job team",
		},
		{
			name:  "excessive punctuation capped",
			input: "no way!!!!!!",
			want:  "no way!!!",
		},
		{
			name:  "hashtags removed",
			input: "what a day #blessed #winning",
			want:  "what a day",
		},
		{
			name:  "bullet list flattened",
			input: "- first thing\n- second thing",
			want:  "first thing second thing",
		},
		{
			name:  "ellipsis character expanded",
			input: "well… maybe",
			want:  "well... maybe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanForTTS(tt.input); got != tt.want {
				t.Errorf("CleanForTTS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
