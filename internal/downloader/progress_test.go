package downloader

import (
	"testing"
	"time"

	"encbot/internal/progress"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		jobID       string
		wantOk      bool
		wantPercent float64
		wantBytes   *int64
		wantETA     *time.Duration
	}{
		{
			name:        "typical download progress",
			line:        "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04",
			jobID:       "job1",
			wantOk:      true,
			wantPercent: 45.2,
			wantBytes:   int64Ptr(10 << 20),
			wantETA:     durationPtr(4 * time.Second),
		},
		{
			name:        "zero percent",
			line:        "[download]   0.0% of 5.00MiB at  500.00KiB/s ETA 01:00",
			jobID:       "job2",
			wantOk:      true,
			wantPercent: 0.0,
		},
		{
			name:        "estimated size",
			line:        "[download]  25.0% of ~5.00MiB at  500.00KiB/s",
			jobID:       "job3",
			wantOk:      true,
			wantPercent: 25.0,
			wantBytes:   int64Ptr(5 << 20),
		},
		{
			name:        "progress with HH:MM:SS ETA",
			line:        "[download]  10.5% of 100.00MiB at  1.00MiB/s ETA 01:23:45",
			jobID:       "job4",
			wantOk:      true,
			wantPercent: 10.5,
			wantETA:     durationPtr(1*time.Hour + 23*time.Minute + 45*time.Second),
		},
		{
			name:        "unknown speed omitted",
			line:        "[download]  50.0% of 8.00MiB at Unknown speed ETA Unknown",
			jobID:       "job5",
			wantOk:      true,
			wantPercent: 50.0,
		},
		{
			name:   "non-download line",
			line:   "[ExtractorError] Unable to download webpage",
			jobID:  "job6",
			wantOk: false,
		},
		{
			name:   "download line without percent",
			line:   "[download] Destination: /tmp/vid.mkv",
			jobID:  "job7",
			wantOk: false,
		},
		{
			name:   "empty line",
			line:   "",
			jobID:  "job8",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ParseProgress(tt.line, tt.jobID)

			if ok != tt.wantOk {
				t.Errorf("ParseProgress() ok = %v, want %v", ok, tt.wantOk)
			}
			if !tt.wantOk {
				return
			}

			if u.JobID != tt.jobID {
				t.Errorf("JobID = %v, want %v", u.JobID, tt.jobID)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
			if u.Stage != progress.StageDownloading {
				t.Errorf("Stage = %v, want StageDownloading", u.Stage)
			}
			if tt.wantBytes != nil {
				if u.Bytes == nil || *u.Bytes != *tt.wantBytes {
					t.Errorf("Bytes = %v, want %v", u.Bytes, *tt.wantBytes)
				}
			}
			if tt.wantETA != nil {
				if u.ETA == nil || *u.ETA != *tt.wantETA {
					t.Errorf("ETA = %v, want %v", u.ETA, *tt.wantETA)
				}
			}
		})
	}
}

func TestParseProgressClampsPercent(t *testing.T) {
	u, ok := ParseProgress("[download] 104.7% of 10.00MiB at 1.00MiB/s", "j")
	if !ok {
		t.Fatal("expected ok")
	}
	if u.Percent != 100 {
		t.Fatalf("Percent = %v, want clamped 100", u.Percent)
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    time.Duration
		wantErr bool
	}{
		{name: "MM:SS format", s: "04:30", want: 4*time.Minute + 30*time.Second},
		{name: "HH:MM:SS format", s: "01:23:45", want: 1*time.Hour + 23*time.Minute + 45*time.Second},
		{name: "seconds only", s: "45", want: 45 * time.Second},
		{name: "zero seconds", s: "00:00", want: 0},
		{name: "invalid format", s: "invalid", wantErr: true},
		{name: "too many colons", s: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseETA(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseETA(%q) expected error, got nil", tt.s)
				}
				return
			}
			if err != nil {
				t.Errorf("parseETA(%q) unexpected error: %v", tt.s, err)
				return
			}
			if got != tt.want {
				t.Errorf("parseETA(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"10.00MiB", 10 << 20, true},
		{"512KiB", 512 << 10, true},
		{"1.50GiB", int64(1.5 * float64(1<<30)), true},
		{"100B", 100, true},
		{"garbage", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseSize(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseSize(%q) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }
func int64Ptr(v int64) *int64                    { return &v }
