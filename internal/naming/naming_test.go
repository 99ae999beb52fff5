package naming

import "testing"

func TestOutputSeries(t *testing.T) {
	cases := []struct {
		name string
		in   string
		res  string
		want string
	}{
		{"season one omits season tag", "Show.Name.S01E05.1080p.WEB-DL.mkv", "720p", "Show.Name.E05.720p.mp4"},
		{"later seasons keep SxxExx", "Show Name S02E11 x264.mkv", "480p", "Show.Name.S02E11.480p.mp4"},
		{"lowercase markers", "show.s01e01.mkv", "360p", "show.E01.360p.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Output(tc.in, tc.res); got != tc.want {
				t.Fatalf("Output(%q, %q) = %q, want %q", tc.in, tc.res, got, tc.want)
			}
		})
	}
}

func TestOutputStripsReleaseTags(t *testing.T) {
	got := Output("Some Movie 2023 1080p WEB-DL x264.mkv", "720p")
	want := "Some.Movie.2023.720p.mp4"
	if got != want {
		t.Fatalf("Output = %q, want %q", got, want)
	}
}

func TestOutputEmptyFallback(t *testing.T) {
	if got := Output("1080p.mkv", "360p"); got != "video.360p.mp4" {
		t.Fatalf("Output = %q, want video.360p.mp4", got)
	}
}

func TestFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://host.tld/files/My%20Video.mkv?token=abc", "My Video.mkv"},
		{"https://host.tld/files/video.mkv.mkv", "video.mkv"},
		{"https://drive.google.com/file/d/FILEID123/view?usp=sharing", "FILEID123.mkv"},
		{"https://drive.google.com/uc?id=ABCDEF&export=download", "ABCDEF.mkv"},
	}
	for _, tc := range cases {
		if got := FromURL(tc.in); got != tc.want {
			t.Errorf("FromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize(`a/b\c:d*e`); got != "a_b_c_d_e" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := Sanitize(""); got != "untitled" {
		t.Fatalf("Sanitize empty = %q", got)
	}
}
